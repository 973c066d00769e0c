package transport

import (
	"bytes"
	"context"
	"sync"

	"github.com/flashbots/onionnet/onion"
)

// Handler receives a packet in process.
type Handler func(ctx context.Context, payload []byte) error

// Loopback is an in-process network. Deliver invokes the handler bound to the
// address on the caller's goroutine, so the call returns when the handler does.
type Loopback struct {
	mu       sync.RWMutex
	handlers map[onion.Address]Handler
}

// NewLoopback creates an empty in-process network.
func NewLoopback() *Loopback {
	return &Loopback{handlers: make(map[onion.Address]Handler)}
}

// Bind attaches h to address, replacing any previous handler.
func (l *Loopback) Bind(address onion.Address, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[address] = h
}

// Unbind detaches the handler at address.
func (l *Loopback) Unbind(address onion.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.handlers, address)
}

// Deliver implements Transport.
func (l *Loopback) Deliver(ctx context.Context, to onion.Address, payload []byte) error {
	l.mu.RLock()
	h, ok := l.handlers[to]
	l.mu.RUnlock()
	if !ok {
		return &DeliveryError{To: to, Reason: "no endpoint bound"}
	}
	if err := ctx.Err(); err != nil {
		return &DeliveryError{To: to, Reason: err.Error()}
	}

	// Receivers may keep the slice.
	if err := h(ctx, bytes.Clone(payload)); err != nil {
		return &DeliveryError{To: to, Reason: err.Error(), Remote: OriginClass(err)}
	}
	return nil
}
