package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// SymmetricKeySize is the AES-256 key length.
	SymmetricKeySize = 32

	// NonceSize is the GCM nonce length prepended to every sealed layer.
	NonceSize = 12

	// TagSize is the GCM authentication tag length appended to every sealed layer.
	TagSize = 16

	// SealOverhead is the number of bytes SealLayer adds to its input.
	SealOverhead = NonceSize + TagSize
)

// SymmetricKey is a per-hop AES-256 key. A fresh key is generated for every hop
// of every message and never derived from anything else.
type SymmetricKey []byte

// GenerateSymmetricKey returns a fresh random hop key.
func GenerateSymmetricKey() (SymmetricKey, error) {
	key := make([]byte, SymmetricKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate symmetric key: %w", err)
	}
	return SymmetricKey(key), nil
}

// ImportSymmetricKey parses a base64 encoded key.
func ImportSymmetricKey(encoded string) (SymmetricKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedInput, err)
	}
	if len(raw) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: symmetric key is %d bytes, want %d", ErrMalformedInput, len(raw), SymmetricKeySize)
	}
	return SymmetricKey(raw), nil
}

// Export returns the base64 encoding of the key.
func (k SymmetricKey) Export() string {
	return base64.StdEncoding.EncodeToString(k)
}

// Bytes returns the raw key.
func (k SymmetricKey) Bytes() []byte {
	return k
}

func (k SymmetricKey) aead() (cipher.AEAD, error) {
	if len(k) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: symmetric key is %d bytes, want %d", ErrMalformedInput, len(k), SymmetricKeySize)
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// SealLayer encrypts plaintext with AES-256-GCM.
// Format: nonce (12 bytes) || ciphertext || tag (16 bytes)
func SealLayer(key SymmetricKey, plaintext []byte) ([]byte, error) {
	gcm, err := key.aead()
	if err != nil {
		return nil, err
	}

	out := make([]byte, NonceSize, NonceSize+len(plaintext)+TagSize)
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(out, out[:NonceSize], plaintext, nil), nil
}

// OpenLayer decrypts a layer produced by SealLayer.
func OpenLayer(key SymmetricKey, sealed []byte) ([]byte, error) {
	if len(sealed) < SealOverhead {
		return nil, fmt.Errorf("%w: sealed layer is %d bytes, want at least %d", ErrMalformedInput, len(sealed), SealOverhead)
	}

	gcm, err := key.aead()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return nil, errors.Join(ErrAuthenticationFailure, err)
	}
	return plaintext, nil
}
