package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
)

const (
	// KeyBits is the RSA modulus size of every relay key.
	KeyBits = 2048

	// EncryptedKeySize is the length of a wrapped hop key. It equals the RSA modulus
	// size in bytes and is identical for every relay and every message.
	EncryptedKeySize = KeyBits / 8

	oaepHashSize = sha256.Size
)

// GenerateKeyPair generates a relay key pair.
func GenerateKeyPair() (*PublicKey, *PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("generate RSA key: %w", err)
	}
	sk := &PrivateKey{key: key}
	return sk.PublicKey(), sk, nil
}

// EncryptKey wraps data (a hop key, never a message) under a relay's public key
// using RSA-OAEP with SHA-256.
// The result is always EncryptedKeySize bytes.
func EncryptKey(data []byte, pub *PublicKey) ([]byte, error) {
	if len(data) > pub.MaxPayload() {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(data), pub.MaxPayload())
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub.key, data, nil)
	if err != nil {
		return nil, fmt.Errorf("rsa encrypt: %w", err)
	}
	return ciphertext, nil
}

// DecryptKey unwraps a hop key with the relay's private key.
func DecryptKey(ciphertext []byte, priv *PrivateKey) ([]byte, error) {
	if len(ciphertext) != priv.key.Size() {
		return nil, fmt.Errorf("%w: wrapped key is %d bytes, want %d", ErrMalformedInput, len(ciphertext), priv.key.Size())
	}
	data, err := rsa.DecryptOAEP(sha256.New(), nil, priv.key, ciphertext, nil)
	if err != nil {
		return nil, ErrKeyMismatch
	}
	return data, nil
}
