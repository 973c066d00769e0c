// Package crypto provides the cryptographic primitives used to build and peel
// onion layers.
//
// Two primitives are combined per hop:
//
//   - RSA-OAEP (SHA-256, 2048-bit keys) wraps the per-hop symmetric key under the
//     relay's public key. The wrapped key is always EncryptedKeySize bytes, which is
//     what lets a relay split a packet without extra framing.
//   - AES-256-GCM seals the layer body. Sealed output is nonce || ciphertext || tag,
//     so opening only needs the key and the sealed bytes.
//
// # Errors
//
// Failures are reported with sentinel errors so callers can tell them apart with
// errors.Is:
//
//   - ErrMalformedInput: wrong length or shape (bug or corruption)
//   - ErrKeyMismatch: wrapped key was not produced for this key pair
//   - ErrAuthenticationFailure: GCM tag did not verify (tampering or wrong key)
//
// # Key Management
//
// Public keys travel as base64 SPKI DER strings (the registry format), private keys
// as base64 PKCS#8 DER. PEM helpers exist for key files. KeyCache avoids re-parsing
// registry keys for every message.
package crypto
