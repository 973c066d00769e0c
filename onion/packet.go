package onion

import (
	"fmt"

	"github.com/flashbots/onionnet/crypto"
)

// Packet is what travels between hops. A relay only ever produces Opaque packets;
// Layered is the sender-side and parse-side view of a hop's packet.
type Packet interface {
	Bytes() []byte
}

// Opaque is cargo forwarded verbatim. It may be another layered packet or the
// final plaintext; the holder does not know which.
type Opaque []byte

// Bytes returns the payload.
func (o Opaque) Bytes() []byte {
	return o
}

// Layered is one hop's packet: the wrapped hop key and the sealed layer.
type Layered struct {
	EncryptedKey []byte
	Ciphertext   []byte
}

// Bytes serializes the packet as EncryptedKey || Ciphertext.
func (l *Layered) Bytes() []byte {
	out := make([]byte, 0, len(l.EncryptedKey)+len(l.Ciphertext))
	out = append(out, l.EncryptedKey...)
	return append(out, l.Ciphertext...)
}

// ParseLayered splits raw at the fixed wrapped-key length.
func ParseLayered(raw []byte) (*Layered, error) {
	minLen := crypto.EncryptedKeySize + crypto.SealOverhead + AddressWidth
	if len(raw) < minLen {
		return nil, fmt.Errorf("%w: packet is %d bytes, want at least %d", crypto.ErrMalformedInput, len(raw), minLen)
	}
	return &Layered{
		EncryptedKey: raw[:crypto.EncryptedKeySize],
		Ciphertext:   raw[crypto.EncryptedKeySize:],
	}, nil
}

// LayerOverhead is the number of bytes each hop adds to its inner payload.
const LayerOverhead = crypto.EncryptedKeySize + crypto.SealOverhead + AddressWidth
