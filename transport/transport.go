package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/flashbots/onionnet/onion"
)

// Transport delivers a packet to an address and waits for the receiver's verdict.
type Transport interface {
	Deliver(ctx context.Context, to onion.Address, payload []byte) error
}

// DeliveryError reports a failed hop. It matches onion.ErrDelivery with errors.Is.
type DeliveryError struct {
	To     onion.Address
	Reason string
	// StatusCode is the HTTP status returned by the receiver, or 0 when no response arrived.
	StatusCode int
	// Remote is the class of the failure at the hop that first failed, as
	// reported by the receiver. Empty when the receiver gave no class.
	Remote onion.ErrorClass
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("delivery to %s failed (%d): %s", e.To, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("delivery to %s failed: %s", e.To, e.Reason)
}

// Is makes DeliveryError match onion.ErrDelivery.
func (e *DeliveryError) Is(target error) bool {
	return target == onion.ErrDelivery
}

// OriginClass returns the class of the fault that started err. For a delivery
// failure whose receiver reported a class, that is the receiver's class, so a
// crypto fault three hops away is not mistaken for a network fault.
func OriginClass(err error) onion.ErrorClass {
	var de *DeliveryError
	if errors.As(err, &de) && de.Remote != "" {
		return de.Remote
	}
	return onion.Classify(err)
}

// MessageRequest is the body of POST /message on relays and users.
// Message is base64 encoded by encoding/json.
type MessageRequest struct {
	Message []byte `json:"message"`
}

// ErrorResponse is the body returned by a receiver that rejected a packet.
type ErrorResponse struct {
	Error string `json:"error"`
	// Class is the OriginClass of the failure.
	Class onion.ErrorClass `json:"class,omitempty"`
}
