package onion

import (
	"bytes"
	"sync"
)

// Observations holds a relay's most recent traffic for external inspection.
// It is diagnostic only; protocol logic never reads it. Last writer wins.
type Observations struct {
	mu              sync.RWMutex
	lastEncrypted   []byte
	lastDecrypted   []byte
	lastDestination *Address
}

// ObservationSnapshot is a copy of Observations at one point in time.
// Nil fields mean nothing has been observed yet.
type ObservationSnapshot struct {
	LastEncrypted   []byte
	LastDecrypted   []byte
	LastDestination *Address
}

func (o *Observations) recordInbound(packet []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastEncrypted = bytes.Clone(packet)
}

func (o *Observations) recordUnwrapped(payload []byte, to Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastDecrypted = bytes.Clone(payload)
	o.lastDestination = &to
}

// Snapshot returns a copy of the current observations.
func (o *Observations) Snapshot() ObservationSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snap := ObservationSnapshot{
		LastEncrypted: bytes.Clone(o.lastEncrypted),
		LastDecrypted: bytes.Clone(o.lastDecrypted),
	}
	if o.lastDestination != nil {
		dest := *o.lastDestination
		snap.LastDestination = &dest
	}
	return snap
}
