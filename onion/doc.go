// Package onion implements the onion circuit protocol.
//
// A sender picks a circuit of CircuitLength relays and wraps a message once per
// relay, innermost layer first, so the entry relay's layer is applied last. Each
// relay peels exactly one layer and learns only the next hop.
//
// # Wire Format
//
// Every hop receives a layered packet:
//
//	[EncryptedKeySize bytes: RSA-OAEP wrapped hop key][nonce || AES-256-GCM ciphertext || tag]
//
// The sealed part decrypts to:
//
//	[AddressWidth ASCII digits: zero-padded next hop][opaque inner payload]
//
// The inner payload is another layered packet for intermediate hops and the
// plaintext message at the exit hop. Relays never look inside it.
//
// # Components
//
//   - Builder: path selection through a PathSelector and packet construction
//   - Unwrapper: per-relay layer removal, bound to one private key
//   - Observations: relay-scoped diagnostic state (last packet, last destination)
//
// # Errors
//
// Classify maps any error from this package, the crypto package or a transport to
// one of ClassPrecondition, ClassCrypto or ClassDelivery.
package onion
