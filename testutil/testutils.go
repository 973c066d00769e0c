package testutil

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/flashbots/onionnet/crypto"
	"github.com/flashbots/onionnet/onion"
)

var keyPool struct {
	mu   sync.Mutex
	keys []*crypto.PrivateKey
}

// GenerateTestKeyPairs returns count distinct relay private keys from the pool.
func GenerateTestKeyPairs(t testing.TB, count int) []*crypto.PrivateKey {
	t.Helper()

	keyPool.mu.Lock()
	defer keyPool.mu.Unlock()

	for len(keyPool.keys) < count {
		_, priv, err := crypto.GenerateKeyPair()
		if err != nil {
			t.Fatalf("generate key pair: %v", err)
		}
		keyPool.keys = append(keyPool.keys, priv)
	}
	return append([]*crypto.PrivateKey(nil), keyPool.keys[:count]...)
}

// GenerateRandomBytes returns length random bytes.
func GenerateRandomBytes(t testing.TB, length int) []byte {
	t.Helper()
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("random bytes: %v", err)
	}
	return b
}

// TestRelay is a relay identity together with its private key.
type TestRelay struct {
	Identity   onion.RelayIdentity
	PrivateKey *crypto.PrivateKey
}

// Unwrapper returns a fresh unwrapper bound to the relay's key.
func (r TestRelay) Unwrapper(addressing onion.Addressing) *onion.Unwrapper {
	return onion.NewUnwrapper(r.PrivateKey, addressing)
}

type relayOptions struct {
	firstID int
}

// RelayOption customizes NewTestRelays.
type RelayOption func(*relayOptions)

// WithFirstID numbers relays from id instead of 0.
func WithFirstID(id int) RelayOption {
	return func(o *relayOptions) {
		o.firstID = id
	}
}

// NewTestRelays creates count relays with consecutive ids.
func NewTestRelays(t testing.TB, count int, options ...RelayOption) []TestRelay {
	t.Helper()

	opts := relayOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	keys := GenerateTestKeyPairs(t, count)
	relays := make([]TestRelay, count)
	for i, key := range keys {
		relays[i] = TestRelay{
			Identity: onion.RelayIdentity{
				ID:        opts.firstID + i,
				PublicKey: key.PublicKey(),
			},
			PrivateKey: key,
		}
	}
	return relays
}

// Identities returns the directory view of relays.
func Identities(relays []TestRelay) []onion.RelayIdentity {
	ids := make([]onion.RelayIdentity, len(relays))
	for i, r := range relays {
		ids[i] = r.Identity
	}
	return ids
}

// RelayByID returns the relay with the given id, failing the test if absent.
func RelayByID(t testing.TB, relays []TestRelay, id int) TestRelay {
	t.Helper()
	for _, r := range relays {
		if r.Identity.ID == id {
			return r
		}
	}
	t.Fatalf("relay %d not found", id)
	return TestRelay{}
}
