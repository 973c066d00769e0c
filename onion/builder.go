package onion

import (
	"fmt"

	"github.com/flashbots/onionnet/crypto"
)

// BuiltPacket is the result of wrapping one message.
type BuiltPacket struct {
	// Packet is the outermost layered packet, to be sent to Entry.
	Packet []byte
	// Circuit is the path chosen for this message, entry first.
	Circuit Circuit
	// Entry is the address of the first relay.
	Entry Address
}

// Builder constructs layered packets. It is safe for concurrent use as long as
// its PathSelector is.
type Builder struct {
	addressing Addressing
	selector   PathSelector
}

// NewBuilder creates a builder. A nil selector selects uniformly at random.
func NewBuilder(addressing Addressing, selector PathSelector) *Builder {
	if selector == nil {
		selector = RandomSelector{}
	}
	return &Builder{
		addressing: addressing,
		selector:   selector,
	}
}

// Build wraps message for destination through a circuit chosen from snapshot.
// All precondition checks, including address encoding, happen before any key is generated.
func (b *Builder) Build(message []byte, destination Address, snapshot []RelayIdentity) (*BuiltPacket, error) {
	if len(message) == 0 {
		return nil, ErrMissingMessage
	}

	candidates := b.addressable(distinctRelays(snapshot))
	if len(candidates) < CircuitLength {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientRelays, len(candidates), CircuitLength)
	}

	circuit, err := b.selector.Select(candidates, CircuitLength)
	if err != nil {
		return nil, err
	}
	if err := validateCircuit(circuit, CircuitLength); err != nil {
		return nil, err
	}

	// nextHops[i] is the address that relay i forwards to.
	nextHops := make([][]byte, CircuitLength)
	var entry Address
	for i := range circuit {
		var next Address
		if i == CircuitLength-1 {
			next = destination
		} else {
			next, err = b.addressing.RelayAddress(circuit[i+1].ID)
			if err != nil {
				return nil, err
			}
		}
		if nextHops[i], err = EncodeAddress(next); err != nil {
			return nil, err
		}
	}
	if entry, err = b.addressing.RelayAddress(circuit[0].ID); err != nil {
		return nil, err
	}

	hopKeys := make([]crypto.SymmetricKey, CircuitLength)
	for i := range hopKeys {
		if hopKeys[i], err = crypto.GenerateSymmetricKey(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyExport, err)
		}
	}

	var inner Packet = Opaque(message)
	for i := CircuitLength - 1; i >= 0; i-- {
		layer, err := wrapLayer(hopKeys[i], circuit[i].PublicKey, nextHops[i], inner)
		if err != nil {
			return nil, fmt.Errorf("%w: relay %d: %w", ErrKeyExport, circuit[i].ID, err)
		}
		inner = layer
	}

	return &BuiltPacket{
		Packet:  inner.Bytes(),
		Circuit: circuit,
		Entry:   entry,
	}, nil
}

// addressable drops relays whose id has no address, so a bogus registration
// cannot be selected.
func (b *Builder) addressable(relays []RelayIdentity) []RelayIdentity {
	out := relays[:0]
	for _, r := range relays {
		if _, err := b.addressing.RelayAddress(r.ID); err == nil {
			out = append(out, r)
		}
	}
	return out
}

func wrapLayer(hopKey crypto.SymmetricKey, relayKey *crypto.PublicKey, nextHop []byte, inner Packet) (*Layered, error) {
	innerBytes := inner.Bytes()
	plaintext := make([]byte, 0, len(nextHop)+len(innerBytes))
	plaintext = append(plaintext, nextHop...)
	plaintext = append(plaintext, innerBytes...)

	ciphertext, err := crypto.SealLayer(hopKey, plaintext)
	if err != nil {
		return nil, err
	}

	encryptedKey, err := crypto.EncryptKey(hopKey, relayKey)
	if err != nil {
		return nil, err
	}

	return &Layered{
		EncryptedKey: encryptedKey,
		Ciphertext:   ciphertext,
	}, nil
}
