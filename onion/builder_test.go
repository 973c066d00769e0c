package onion_test

import (
	"bytes"
	"testing"

	"github.com/flashbots/onionnet/crypto"
	"github.com/flashbots/onionnet/onion"
	"github.com/flashbots/onionnet/testutil"
	"github.com/stretchr/testify/require"
)

var layout = onion.DefaultPortLayout

func userAddress(t *testing.T, id int) onion.Address {
	t.Helper()
	a, err := layout.UserAddress(id)
	require.NoError(t, err)
	return a
}

func relayAddress(t *testing.T, id int) onion.Address {
	t.Helper()
	a, err := layout.RelayAddress(id)
	require.NoError(t, err)
	return a
}

// countingSelector records whether path selection was reached.
type countingSelector struct {
	calls int
}

func (s *countingSelector) Select(candidates []onion.RelayIdentity, n int) (onion.Circuit, error) {
	s.calls++
	return onion.RandomSelector{}.Select(candidates, n)
}

func TestBuild_EndToEndScenario(t *testing.T) {
	relays := testutil.NewTestRelays(t, 3, testutil.WithFirstID(1))
	builder := onion.NewBuilder(layout, onion.StaticSelector{IDs: []int{1, 2, 3}})

	user := userAddress(t, 5)
	built, err := builder.Build([]byte("hello"), user, testutil.Identities(relays))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, built.Circuit.IDs())
	require.Equal(t, relayAddress(t, 1), built.Entry)

	r1 := testutil.RelayByID(t, relays, 1).Unwrapper(layout)
	hop1, err := r1.Unwrap(built.Packet)
	require.NoError(t, err)
	require.Equal(t, onion.Forward, hop1.Kind)
	require.Equal(t, relayAddress(t, 2), hop1.To)

	r2 := testutil.RelayByID(t, relays, 2).Unwrapper(layout)
	hop2, err := r2.Unwrap(hop1.Payload)
	require.NoError(t, err)
	require.Equal(t, onion.Forward, hop2.Kind)
	require.Equal(t, relayAddress(t, 3), hop2.To)

	r3 := testutil.RelayByID(t, relays, 3).Unwrapper(layout)
	hop3, err := r3.Unwrap(hop2.Payload)
	require.NoError(t, err)
	require.Equal(t, onion.Deliver, hop3.Kind)
	require.Equal(t, user, hop3.To)
	require.Equal(t, []byte("hello"), hop3.Payload.Bytes())
}

func TestBuild_RoundTripRandomPath(t *testing.T) {
	relays := testutil.NewTestRelays(t, 6)
	builder := onion.NewBuilder(layout, nil)
	dest := userAddress(t, 0)

	for _, size := range []int{1, 17, 4096} {
		msg := testutil.GenerateRandomBytes(t, size)
		built, err := builder.Build(msg, dest, testutil.Identities(relays))
		require.NoError(t, err)
		require.Len(t, built.Circuit, onion.CircuitLength)

		// Every hop adds a fixed overhead.
		require.Len(t, built.Packet, size+onion.CircuitLength*onion.LayerOverhead)

		payload := built.Packet
		for i, hop := range built.Circuit {
			u := testutil.RelayByID(t, relays, hop.ID).Unwrapper(layout)
			instr, err := u.Unwrap(payload)
			require.NoError(t, err)

			if i == len(built.Circuit)-1 {
				require.Equal(t, dest, instr.To)
			} else {
				require.Equal(t, relayAddress(t, built.Circuit[i+1].ID), instr.To)
			}
			payload = instr.Payload
		}
		require.True(t, bytes.Equal(msg, payload))
	}
}

func TestBuild_SelectsDistinctRelays(t *testing.T) {
	relays := testutil.NewTestRelays(t, 3)
	builder := onion.NewBuilder(layout, nil)

	for i := 0; i < 20; i++ {
		built, err := builder.Build([]byte("x"), userAddress(t, 0), testutil.Identities(relays))
		require.NoError(t, err)
		require.ElementsMatch(t, []int{0, 1, 2}, built.Circuit.IDs())
	}
}

func TestBuild_InsufficientRelays(t *testing.T) {
	relays := testutil.NewTestRelays(t, 3)
	selector := &countingSelector{}
	builder := onion.NewBuilder(layout, selector)

	_, err := builder.Build([]byte("hello"), userAddress(t, 0), testutil.Identities(relays[:2]))
	require.ErrorIs(t, err, onion.ErrInsufficientRelays)
	require.Equal(t, onion.ClassPrecondition, onion.Classify(err))
	require.Zero(t, selector.calls)

	// Duplicate ids do not count twice.
	dup := []onion.RelayIdentity{relays[0].Identity, relays[1].Identity, relays[1].Identity}
	_, err = builder.Build([]byte("hello"), userAddress(t, 0), dup)
	require.ErrorIs(t, err, onion.ErrInsufficientRelays)
	require.Zero(t, selector.calls)
}

func TestBuild_SkipsUnaddressableRelays(t *testing.T) {
	relays := testutil.NewTestRelays(t, 5)
	snapshot := testutil.Identities(relays)
	snapshot[3].ID = -1
	snapshot[4].ID = onion.DefaultPortSpan + 4
	builder := onion.NewBuilder(layout, nil)

	for i := 0; i < 40; i++ {
		built, err := builder.Build([]byte("x"), userAddress(t, 0), snapshot)
		require.NoError(t, err)
		require.ElementsMatch(t, []int{0, 1, 2}, built.Circuit.IDs())
	}

	// Unaddressable relays do not count towards the circuit length.
	selector := &countingSelector{}
	_, err := onion.NewBuilder(layout, selector).Build([]byte("x"), userAddress(t, 0), snapshot[1:])
	require.ErrorIs(t, err, onion.ErrInsufficientRelays)
	require.Zero(t, selector.calls)
}

func TestBuild_Preconditions(t *testing.T) {
	relays := testutil.NewTestRelays(t, 3)
	builder := onion.NewBuilder(layout, nil)

	_, err := builder.Build(nil, userAddress(t, 0), testutil.Identities(relays))
	require.ErrorIs(t, err, onion.ErrMissingMessage)

	_, err = builder.Build([]byte("hello"), onion.MaxAddress+1, testutil.Identities(relays))
	require.ErrorIs(t, err, onion.ErrEncodingOverflow)
	require.Equal(t, onion.ClassPrecondition, onion.Classify(err))
}

func TestBuild_StaticSelectorValidation(t *testing.T) {
	relays := testutil.NewTestRelays(t, 3)

	_, err := onion.NewBuilder(layout, onion.StaticSelector{IDs: []int{0, 1}}).
		Build([]byte("hello"), userAddress(t, 0), testutil.Identities(relays))
	require.ErrorIs(t, err, onion.ErrInvalidCircuit)

	_, err = onion.NewBuilder(layout, onion.StaticSelector{IDs: []int{0, 1, 9}}).
		Build([]byte("hello"), userAddress(t, 0), testutil.Identities(relays))
	require.ErrorIs(t, err, onion.ErrInvalidCircuit)

	_, err = onion.NewBuilder(layout, onion.StaticSelector{IDs: []int{0, 1, 1}}).
		Build([]byte("hello"), userAddress(t, 0), testutil.Identities(relays))
	require.ErrorIs(t, err, onion.ErrInvalidCircuit)
}

func TestBuild_EncryptedKeyFieldIsFixedLength(t *testing.T) {
	relays := testutil.NewTestRelays(t, 5)
	builder := onion.NewBuilder(layout, nil)

	for i := 0; i < 10; i++ {
		msg := testutil.GenerateRandomBytes(t, 1+i*31)
		built, err := builder.Build(msg, userAddress(t, 1), testutil.Identities(relays))
		require.NoError(t, err)

		payload := built.Packet
		for _, hop := range built.Circuit {
			layered, err := onion.ParseLayered(payload)
			require.NoError(t, err)
			require.Len(t, layered.EncryptedKey, crypto.EncryptedKeySize)

			instr, err := testutil.RelayByID(t, relays, hop.ID).Unwrapper(layout).Unwrap(payload)
			require.NoError(t, err)
			payload = instr.Payload
		}
	}
}
