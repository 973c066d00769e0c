package services

import (
	"context"
	"testing"

	"github.com/flashbots/onionnet/directory"
	"github.com/flashbots/onionnet/onion"
	"github.com/flashbots/onionnet/testutil"
	"github.com/flashbots/onionnet/transport"
	"github.com/stretchr/testify/require"
)

type testNetwork struct {
	registry *directory.Registry
	loopback *transport.Loopback
	relays   []*Relay
	users    []*User
}

// newTestNetwork wires relays and users over an in-process loopback network.
func newTestNetwork(t *testing.T, numRelays, numUsers int, selector onion.PathSelector) *testNetwork {
	t.Helper()
	ctx := context.Background()

	registry, err := directory.NewRegistry(ctx, nil)
	require.NoError(t, err)

	net := &testNetwork{
		registry: registry,
		loopback: transport.NewLoopback(),
	}

	keys := testutil.GenerateTestKeyPairs(t, numRelays)
	for i := 0; i < numRelays; i++ {
		relay, err := NewRelay(&RelayConfig{
			ID:         i,
			Addressing: onion.DefaultPortLayout,
			Directory:  registry,
			Transport:  net.loopback,
			PrivateKey: keys[i],
		})
		require.NoError(t, err)
		require.NoError(t, relay.Start(ctx))
		net.loopback.Bind(relay.Address(), relay.HandleMessage)
		net.relays = append(net.relays, relay)
	}

	for i := 0; i < numUsers; i++ {
		user, err := NewUser(&UserConfig{
			ID:         i,
			Addressing: onion.DefaultPortLayout,
			Directory:  registry,
			Transport:  net.loopback,
			Selector:   selector,
		})
		require.NoError(t, err)
		net.loopback.Bind(user.Address(), user.HandleMessage)
		net.users = append(net.users, user)
	}

	return net
}

// countingTransport records deliveries before passing them on.
type countingTransport struct {
	next  transport.Transport
	count int
}

func (c *countingTransport) Deliver(ctx context.Context, to onion.Address, payload []byte) error {
	c.count++
	return c.next.Deliver(ctx, to, payload)
}
