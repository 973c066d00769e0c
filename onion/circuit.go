package onion

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/flashbots/onionnet/crypto"
)

// CircuitLength is the fixed number of hops: entry, middle, exit.
const CircuitLength = 3

// RelayIdentity is a relay as known to the directory. Never mutated after registration.
type RelayIdentity struct {
	ID        int
	PublicKey *crypto.PublicKey
}

// Circuit is the ordered path chosen for one message, entry relay first.
type Circuit []RelayIdentity

// IDs returns the relay ids in path order.
func (c Circuit) IDs() []int {
	ids := make([]int, len(c))
	for i, r := range c {
		ids[i] = r.ID
	}
	return ids
}

// PathSelector chooses n relays from candidates. Candidates are distinct by ID.
type PathSelector interface {
	Select(candidates []RelayIdentity, n int) (Circuit, error)
}

// RandomSelector picks uniformly at random without replacement.
type RandomSelector struct{}

// Select implements PathSelector.
func (RandomSelector) Select(candidates []RelayIdentity, n int) (Circuit, error) {
	if len(candidates) < n {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientRelays, len(candidates), n)
	}
	perm := rand.Perm(len(candidates))
	circuit := make(Circuit, n)
	for i := range circuit {
		circuit[i] = candidates[perm[i]]
	}
	return circuit, nil
}

// StaticSelector always returns the relays with the given ids, in order.
// Useful for tests and for pinning a path.
type StaticSelector struct {
	IDs []int
}

// Select implements PathSelector.
func (s StaticSelector) Select(candidates []RelayIdentity, n int) (Circuit, error) {
	if len(s.IDs) != n {
		return nil, fmt.Errorf("%w: static path has %d relays, need %d", ErrInvalidCircuit, len(s.IDs), n)
	}
	circuit := make(Circuit, 0, n)
	for _, id := range s.IDs {
		idx := slices.IndexFunc(candidates, func(r RelayIdentity) bool { return r.ID == id })
		if idx < 0 {
			return nil, fmt.Errorf("%w: relay %d not in directory", ErrInvalidCircuit, id)
		}
		circuit = append(circuit, candidates[idx])
	}
	return circuit, nil
}

// distinctRelays drops duplicate ids (first occurrence wins) and relays without a key.
func distinctRelays(snapshot []RelayIdentity) []RelayIdentity {
	seen := make(map[int]struct{}, len(snapshot))
	out := make([]RelayIdentity, 0, len(snapshot))
	for _, r := range snapshot {
		if r.PublicKey == nil {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func validateCircuit(c Circuit, n int) error {
	if len(c) != n {
		return fmt.Errorf("%w: got %d relays, want %d", ErrInvalidCircuit, len(c), n)
	}
	seen := make(map[int]struct{}, n)
	for _, r := range c {
		if r.PublicKey == nil {
			return fmt.Errorf("%w: relay %d has no public key", ErrInvalidCircuit, r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: relay %d appears twice", ErrInvalidCircuit, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
