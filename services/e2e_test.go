package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flashbots/onionnet/directory"
	"github.com/flashbots/onionnet/onion"
	"github.com/flashbots/onionnet/transport"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type httpNetwork struct {
	registryURL string
	resolver    transport.StaticResolver
	relays      []*Relay
	relayURLs   []string
	users       []*User
	userURLs    []string
}

// startHTTPNetwork runs the registry, relays and users behind real HTTP servers.
// Addresses resolve to httptest URLs instead of localhost ports.
func startHTTPNetwork(t *testing.T, numRelays, numUsers int, selector onion.PathSelector) *httpNetwork {
	t.Helper()
	ctx := context.Background()

	registry, err := directory.NewRegistry(ctx, nil)
	require.NoError(t, err)
	registryRouter := chi.NewRouter()
	registry.RegisterRoutes(registryRouter)
	registryServer := httptest.NewServer(registryRouter)
	t.Cleanup(registryServer.Close)

	net := &httpNetwork{
		registryURL: registryServer.URL,
		resolver:    transport.StaticResolver{},
	}
	dir := directory.NewClient(registryServer.URL, nil)
	tr := transport.NewHTTPTransport(net.resolver, nil)

	for i := 0; i < numRelays; i++ {
		relay, err := NewRelay(&RelayConfig{
			ID:         i,
			Addressing: onion.DefaultPortLayout,
			Directory:  dir,
			Transport:  tr,
		})
		require.NoError(t, err)
		require.NoError(t, relay.Start(ctx))

		ts := httptest.NewServer(newRelayRouter(relay))
		t.Cleanup(ts.Close)
		net.resolver[relay.Address()] = ts.URL
		net.relays = append(net.relays, relay)
		net.relayURLs = append(net.relayURLs, ts.URL)
	}

	for i := 0; i < numUsers; i++ {
		user, err := NewUser(&UserConfig{
			ID:         i,
			Addressing: onion.DefaultPortLayout,
			Directory:  dir,
			Transport:  tr,
			Selector:   selector,
		})
		require.NoError(t, err)

		ts := httptest.NewServer(newUserRouter(user))
		t.Cleanup(ts.Close)
		net.resolver[user.Address()] = ts.URL
		net.users = append(net.users, user)
		net.userURLs = append(net.userURLs, ts.URL)
	}

	return net
}

func httpResult(t *testing.T, url string) any {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result ResultResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result.Result
}

func httpSend(t *testing.T, userURL, message string, destination int) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(map[string]any{"message": message, "destinationUserId": destination})
	require.NoError(t, err)

	resp, err := http.Post(userURL+"/sendMessage", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

// TestE2E_HelloThroughThreeRelays sends "hello" from user 0 to user 5 through
// relays 1, 2 and 3 over HTTP and checks what each hop observed.
func TestE2E_HelloThroughThreeRelays(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	net := startHTTPNetwork(t, 4, 6, onion.StaticSelector{IDs: []int{1, 2, 3}})

	resp, body := httpSend(t, net.userURLs[0], "hello", 5)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var sendResp SendMessageResponse
	require.NoError(t, json.Unmarshal(body, &sendResp))
	require.True(t, sendResp.Success)
	require.Equal(t, []int{1, 2, 3}, sendResp.Circuit)

	require.Equal(t, "hello", httpResult(t, net.userURLs[5]+"/getLastReceivedMessage"))
	require.Equal(t, "hello", httpResult(t, net.userURLs[0]+"/getLastSentMessage"))

	require.EqualValues(t, 4002, httpResult(t, net.relayURLs[1]+"/getLastMessageDestination"))
	require.EqualValues(t, 4003, httpResult(t, net.relayURLs[2]+"/getLastMessageDestination"))
	require.EqualValues(t, 3005, httpResult(t, net.relayURLs[3]+"/getLastMessageDestination"))
	require.Nil(t, httpResult(t, net.relayURLs[0]+"/getLastMessageDestination"))

	// The exit relay saw the plaintext as its peeled payload; inner relays did not.
	exitDecrypted := httpResult(t, net.relayURLs[3]+"/getLastReceivedDecryptedMessage")
	require.Equal(t, "aGVsbG8=", exitDecrypted)
	require.NotEqual(t, "aGVsbG8=", httpResult(t, net.relayURLs[1]+"/getLastReceivedDecryptedMessage"))

	// Every hop's inbound packet shrinks by exactly one layer.
	var sizes []int
	for _, id := range []int{1, 2, 3} {
		encoded := httpResult(t, net.relayURLs[id]+"/getLastReceivedEncryptedMessage").(string)
		sizes = append(sizes, len(encoded))
	}
	require.Greater(t, sizes[0], sizes[1])
	require.Greater(t, sizes[1], sizes[2])
}

func TestE2E_RandomCircuits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	net := startHTTPNetwork(t, 5, 3, nil)

	for i, msg := range []string{"one", "two", "three", "four"} {
		to := i % 3
		resp, body := httpSend(t, net.userURLs[(i+1)%3], msg, to)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		require.Equal(t, msg, httpResult(t, net.userURLs[to]+"/getLastReceivedMessage"))
	}
}

func TestE2E_DeliveryFailureReachesSender(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	net := startHTTPNetwork(t, 3, 1, onion.StaticSelector{IDs: []int{0, 1, 2}})

	// User 4 has no endpoint, so the exit relay fails and the error travels back.
	resp, body := httpSend(t, net.userURLs[0], "hello", 4)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var errResp transport.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	require.Equal(t, onion.ClassDelivery, errResp.Class)
	require.Nil(t, httpResult(t, net.userURLs[0]+"/getLastSentMessage"))

	// Each relay on the path still peeled its layer.
	for i := range net.relays {
		require.NotNil(t, httpResult(t, net.relayURLs[i]+"/getLastReceivedDecryptedMessage"))
	}
}

func TestE2E_WrongKeyMiddleRelayReportsCrypto(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	net := startHTTPNetwork(t, 3, 1, onion.StaticSelector{IDs: []int{0, 1, 2}})

	// Serve relay 1's address from a relay holding a different key.
	imposter, err := NewRelay(&RelayConfig{
		ID:         1,
		Addressing: onion.DefaultPortLayout,
		Transport:  transport.NewHTTPTransport(net.resolver, nil),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(newRelayRouter(imposter))
	t.Cleanup(ts.Close)
	net.resolver[imposter.Address()] = ts.URL

	resp, body := httpSend(t, net.userURLs[0], "hello", 0)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode, string(body))

	var errResp transport.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	require.Equal(t, onion.ClassCrypto, errResp.Class)
	require.Contains(t, errResp.Error, "key mismatch")

	require.Nil(t, httpResult(t, net.userURLs[0]+"/getLastReceivedMessage"))
	require.Nil(t, httpResult(t, net.relayURLs[2]+"/getLastReceivedEncryptedMessage"))
}

func TestE2E_InsufficientRelays(t *testing.T) {
	net := startHTTPNetwork(t, 2, 1, nil)

	resp, body := httpSend(t, net.userURLs[0], "hello", 0)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp transport.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	require.Equal(t, onion.ClassPrecondition, errResp.Class)

	for _, url := range net.relayURLs {
		require.Nil(t, httpResult(t, url+"/getLastReceivedEncryptedMessage"))
	}
}
