package onion

import (
	"fmt"

	"github.com/flashbots/onionnet/crypto"
)

// InstructionKind says whether a payload goes to another relay or to its final recipient.
type InstructionKind int

const (
	// Forward sends the payload to another relay.
	Forward InstructionKind = iota
	// Deliver sends the payload to a user endpoint.
	Deliver
)

func (k InstructionKind) String() string {
	switch k {
	case Forward:
		return "forward"
	case Deliver:
		return "deliver"
	}
	return fmt.Sprintf("InstructionKind(%d)", int(k))
}

// Instruction is what a relay must do after peeling its layer.
type Instruction struct {
	Kind    InstructionKind
	To      Address
	Payload Opaque
}

// Unwrapper peels layers addressed to one relay. It carries the relay's own
// state instead of relying on globals, so several relays can share a process.
type Unwrapper struct {
	privateKey   *crypto.PrivateKey
	addressing   Addressing
	observations *Observations
}

// NewUnwrapper binds an unwrapper to a relay private key. addressing may be nil,
// in which case every instruction is Forward.
func NewUnwrapper(privateKey *crypto.PrivateKey, addressing Addressing) *Unwrapper {
	return &Unwrapper{
		privateKey:   privateKey,
		addressing:   addressing,
		observations: &Observations{},
	}
}

// Observations returns the relay-scoped diagnostic state.
func (u *Unwrapper) Observations() *Observations {
	return u.observations
}

// Unwrap removes one layer from packet. It never retries or repairs input, and
// never returns partial plaintext on failure.
func (u *Unwrapper) Unwrap(packet []byte) (*Instruction, error) {
	if len(packet) == 0 {
		return nil, ErrMissingMessage
	}
	u.observations.recordInbound(packet)

	layered, err := ParseLayered(packet)
	if err != nil {
		return nil, err
	}

	hopKey, err := crypto.DecryptKey(layered.EncryptedKey, u.privateKey)
	if err != nil {
		return nil, fmt.Errorf("unwrap hop key: %w", err)
	}

	plaintext, err := crypto.OpenLayer(crypto.SymmetricKey(hopKey), layered.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("open layer: %w", err)
	}
	if len(plaintext) < AddressWidth {
		return nil, fmt.Errorf("%w: layer plaintext shorter than address field", crypto.ErrMalformedInput)
	}

	to, err := ParseAddress(plaintext[:AddressWidth])
	if err != nil {
		return nil, err
	}
	payload := Opaque(plaintext[AddressWidth:])

	u.observations.recordUnwrapped(payload, to)

	kind := Forward
	if u.addressing != nil && u.addressing.IsUserAddress(to) {
		kind = Deliver
	}

	return &Instruction{
		Kind:    kind,
		To:      to,
		Payload: payload,
	}, nil
}
