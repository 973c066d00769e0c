package onion

import (
	"errors"

	"github.com/flashbots/onionnet/crypto"
)

var (
	// ErrMissingMessage is returned for an empty message or packet.
	ErrMissingMessage = errors.New("missing message")

	// ErrInsufficientRelays is returned when the directory has fewer than CircuitLength distinct relays.
	ErrInsufficientRelays = errors.New("insufficient relays")

	// ErrInvalidCircuit is returned when a PathSelector returns a path that is not CircuitLength distinct relays.
	ErrInvalidCircuit = errors.New("invalid circuit")

	// ErrEncodingOverflow is returned when an address does not fit the fixed-width field.
	ErrEncodingOverflow = errors.New("address does not fit fixed-width field")

	// ErrKeyExport wraps crypto backend failures while building a packet.
	ErrKeyExport = errors.New("key export failure")

	// ErrDirectoryUnavailable marks a directory that could not be listed.
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrDelivery marks transport failures. Transports wrap it so Classify can find it.
	ErrDelivery = errors.New("delivery failure")
)

// ErrorClass groups failures by what they imply about the fault.
type ErrorClass string

const (
	// ClassPrecondition: the request was rejected before any crypto or network work.
	ClassPrecondition ErrorClass = "precondition"
	// ClassCrypto: a key or layer failed to decrypt or verify. Indicates attack, bug or corruption.
	ClassCrypto ErrorClass = "crypto"
	// ClassDelivery: the network or a downstream hop failed.
	ClassDelivery ErrorClass = "delivery"
	// ClassDirectory: the relay directory could not be reached.
	ClassDirectory ErrorClass = "directory"
	// ClassInternal: anything else.
	ClassInternal ErrorClass = "internal"
)

// Classify returns the class of err. A nil error has an empty class.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingMessage),
		errors.Is(err, ErrInsufficientRelays),
		errors.Is(err, ErrInvalidCircuit),
		errors.Is(err, ErrEncodingOverflow):
		return ClassPrecondition
	case errors.Is(err, ErrDirectoryUnavailable):
		return ClassDirectory
	case errors.Is(err, ErrDelivery):
		return ClassDelivery
	case errors.Is(err, ErrKeyExport),
		errors.Is(err, crypto.ErrKeyMismatch),
		errors.Is(err, crypto.ErrAuthenticationFailure),
		errors.Is(err, crypto.ErrMalformedInput),
		errors.Is(err, crypto.ErrPayloadTooLarge):
		return ClassCrypto
	default:
		return ClassInternal
	}
}
