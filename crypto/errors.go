package crypto

import "errors"

var (
	// ErrMalformedInput is returned when ciphertext or key material has the wrong length or shape.
	ErrMalformedInput = errors.New("malformed input")

	// ErrKeyMismatch is returned when a wrapped key was not produced for the decrypting key pair.
	ErrKeyMismatch = errors.New("key mismatch")

	// ErrAuthenticationFailure is returned when an authentication tag does not verify.
	ErrAuthenticationFailure = errors.New("authentication failure")

	// ErrPayloadTooLarge is returned when data exceeds what a public key can wrap.
	ErrPayloadTooLarge = errors.New("payload exceeds public key capacity")
)
