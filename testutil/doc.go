/*
Package testutil provides fixtures for testing onionnet components.

Relay keys are RSA-2048, which is slow to generate, so keys come from a
process-wide pool: the first test that needs N keys pays for them and later
tests reuse them.

# Relays

	// Three relays with ids 0, 1, 2
	relays := testutil.NewTestRelays(t, 3)

	// Ids starting at 7
	relays := testutil.NewTestRelays(t, 3, testutil.WithFirstID(7))

	// Directory snapshot for the builder
	snapshot := testutil.Identities(relays)

	// Unwrapper bound to relay 1
	u := relays[1].Unwrapper(onion.DefaultPortLayout)

# Random Data

	payload := testutil.GenerateRandomBytes(t, 512)
*/
package testutil
