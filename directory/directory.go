package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/flashbots/onionnet/crypto"
	"github.com/flashbots/onionnet/onion"
)

var (
	// ErrAlreadyRegistered is returned when a relay id is already taken.
	ErrAlreadyRegistered = errors.New("node already registered")

	// ErrMissingField is returned when a registration lacks its id or key.
	ErrMissingField = errors.New("missing nodeId or pubKey")

	// ErrInvalidID is returned for a negative relay id.
	ErrInvalidID = errors.New("invalid nodeId")

	// ErrInvalidKey is returned when a registration key does not parse.
	ErrInvalidKey = errors.New("invalid public key")
)

// Node is a registered relay as stored and served by the registry.
type Node struct {
	NodeID int    `json:"nodeId"`
	PubKey string `json:"pubKey"`
}

// Directory registers relays and lists them.
type Directory interface {
	Register(ctx context.Context, id int, pubKey string) error
	List(ctx context.Context) ([]Node, error)
}

// Snapshot lists dir and parses every key into a relay identity.
func Snapshot(ctx context.Context, dir Directory, cache *crypto.KeyCache) ([]onion.RelayIdentity, error) {
	nodes, err := dir.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", onion.ErrDirectoryUnavailable, err)
	}

	relays := make([]onion.RelayIdentity, 0, len(nodes))
	for _, n := range nodes {
		var key *crypto.PublicKey
		if cache != nil {
			key, err = cache.Import(n.PubKey)
		} else {
			key, err = crypto.ImportPublicKey(n.PubKey)
		}
		if err != nil {
			return nil, fmt.Errorf("relay %d: %w: %w", n.NodeID, ErrInvalidKey, err)
		}
		relays = append(relays, onion.RelayIdentity{ID: n.NodeID, PublicKey: key})
	}
	return relays, nil
}
