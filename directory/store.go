package directory

import (
	"context"
	"slices"
	"sync"
)

// Store persists registrations behind a Registry.
type Store interface {
	// SaveNode stores n, returning ErrAlreadyRegistered if the id is taken.
	SaveNode(ctx context.Context, n Node) error
	// LoadNodes returns all stored nodes in registration order.
	LoadNodes(ctx context.Context) ([]Node, error)
	Close() error
}

// InMemoryStore implements Store without a database.
type InMemoryStore struct {
	mu    sync.Mutex
	nodes []Node
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// SaveNode stores a node in memory.
func (s *InMemoryStore) SaveNode(_ context.Context, n Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.nodes, func(o Node) bool { return o.NodeID == n.NodeID }) {
		return ErrAlreadyRegistered
	}
	s.nodes = append(s.nodes, n)
	return nil
}

// LoadNodes returns all stored nodes.
func (s *InMemoryStore) LoadNodes(context.Context) ([]Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.nodes), nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error {
	return nil
}
