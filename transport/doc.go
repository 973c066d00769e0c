// Package transport moves opaque packets between relays and user endpoints.
//
// Every Deliver call is synchronous: it returns only after the receiver has
// finished handling the packet, including any onward forwarding it performs.
// A failure anywhere downstream therefore surfaces to the original caller as a
// single *DeliveryError that matches onion.ErrDelivery.
package transport
