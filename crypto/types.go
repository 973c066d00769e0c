package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// PublicKey is a relay's public key. Hop keys are wrapped under it by the sender.
type PublicKey struct {
	key *rsa.PublicKey
}

// PrivateKey is a relay's private key. It never leaves the relay process except
// through an explicitly enabled debug accessor.
type PrivateKey struct {
	key *rsa.PrivateKey
}

// NewPublicKey wraps an RSA public key.
func NewPublicKey(key *rsa.PublicKey) *PublicKey {
	return &PublicKey{key: key}
}

// ImportPublicKey parses a base64-encoded SPKI DER public key.
func ImportPublicKey(encoded string) (*PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedInput, err)
	}
	return parsePublicKeyDER(der)
}

func parsePublicKeyDER(der []byte) (*PublicKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", ErrMalformedInput)
	}
	if rsaKey.Size() != EncryptedKeySize {
		return nil, fmt.Errorf("%w: key size %d bits, want %d", ErrMalformedInput, rsaKey.N.BitLen(), KeyBits)
	}
	return &PublicKey{key: rsaKey}, nil
}

// Bytes returns the SPKI DER encoding.
func (pk *PublicKey) Bytes() []byte {
	der, err := x509.MarshalPKIXPublicKey(pk.key)
	if err != nil {
		// MarshalPKIXPublicKey only fails for unsupported key types.
		panic(err)
	}
	return der
}

// Export returns the portable base64 SPKI DER form used by the registry.
func (pk *PublicKey) Export() string {
	return base64.StdEncoding.EncodeToString(pk.Bytes())
}

// PEM returns the PEM encoding of the public key.
func (pk *PublicKey) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pk.Bytes()})
}

// MaxPayload is the largest plaintext that EncryptKey accepts for this key.
func (pk *PublicKey) MaxPayload() int {
	return pk.key.Size() - 2*oaepHashSize - 2
}

// Equal reports whether both keys have the same modulus and exponent.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.key.Equal(other.key)
}

// Fingerprint returns a short SHA3-256 digest of the DER encoding for logs.
func (pk *PublicKey) Fingerprint() string {
	sum := sha3.Sum256(pk.Bytes())
	return hex.EncodeToString(sum[:8])
}

// String returns the fingerprint.
func (pk *PublicKey) String() string {
	return pk.Fingerprint()
}

// ImportPrivateKey parses a base64-encoded PKCS#8 DER private key.
func ImportPrivateKey(encoded string) (*PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedInput, err)
	}
	return parsePrivateKeyDER(der)
}

func parsePrivateKeyDER(der []byte) (*PrivateKey, error) {
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", ErrMalformedInput)
	}
	if rsaKey.Size() != EncryptedKeySize {
		return nil, fmt.Errorf("%w: key size %d bits, want %d", ErrMalformedInput, rsaKey.N.BitLen(), KeyBits)
	}
	return &PrivateKey{key: rsaKey}, nil
}

// Bytes returns the PKCS#8 DER encoding.
// This exposes sensitive key material.
func (sk *PrivateKey) Bytes() []byte {
	der, err := x509.MarshalPKCS8PrivateKey(sk.key)
	if err != nil {
		panic(err)
	}
	return der
}

// Export returns the base64 PKCS#8 DER form.
func (sk *PrivateKey) Export() string {
	return base64.StdEncoding.EncodeToString(sk.Bytes())
}

// PEM returns the PEM encoding of the private key.
func (sk *PrivateKey) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: sk.Bytes()})
}

// PublicKey returns the public half of the key pair.
func (sk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: &sk.key.PublicKey}
}

// ParsePrivateKeyPEM parses a PEM encoded PKCS#8 private key, as written by PEM.
func ParsePrivateKeyPEM(data []byte) (*PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}
	return parsePrivateKeyDER(block.Bytes)
}

// ParsePublicKeyPEM parses a PEM encoded SPKI public key.
func ParsePublicKeyPEM(data []byte) (*PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}
	return parsePublicKeyDER(block.Bytes)
}
