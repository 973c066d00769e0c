package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flashbots/onionnet/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func setupTestRegistry(t *testing.T) (*Registry, chi.Router) {
	t.Helper()

	registry, err := NewRegistry(context.Background(), nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	registry.RegisterRoutes(r)

	return registry, r
}

func postRegister(t *testing.T, router chi.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/registerNode", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registrationBody(t *testing.T, id int, pubKey string) string {
	t.Helper()
	body, err := json.Marshal(&RegisterNodeRequest{NodeID: &id, PubKey: pubKey})
	require.NoError(t, err)
	return string(body)
}

func TestRegistry_Status(t *testing.T) {
	_, router := setupTestRegistry(t)

	req := httptest.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "live", w.Body.String())
}

func TestRegistry_RegisterAndList(t *testing.T) {
	_, router := setupTestRegistry(t)
	relays := testutil.NewTestRelays(t, 2)

	for _, relay := range relays {
		w := postRegister(t, router, registrationBody(t, relay.Identity.ID, relay.Identity.PublicKey.Export()))
		require.Equal(t, http.StatusOK, w.Code)

		var resp RegisterNodeResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.True(t, resp.Success)
	}

	req := httptest.NewRequest("GET", "/getNodeRegistry", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list NodeRegistryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Nodes, 2)
	require.Equal(t, 0, list.Nodes[0].NodeID)
	require.Equal(t, relays[1].Identity.PublicKey.Export(), list.Nodes[1].PubKey)
}

func TestRegistry_EmptyListIsArray(t *testing.T) {
	_, router := setupTestRegistry(t)

	req := httptest.NewRequest("GET", "/getNodeRegistry", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.JSONEq(t, `{"nodes":[]}`, w.Body.String())
}

func TestRegistry_DuplicateIDConflict(t *testing.T) {
	registry, router := setupTestRegistry(t)
	relays := testutil.NewTestRelays(t, 2)

	w := postRegister(t, router, registrationBody(t, 1, relays[0].Identity.PublicKey.Export()))
	require.Equal(t, http.StatusOK, w.Code)

	// Same id, different key: first writer wins.
	w = postRegister(t, router, registrationBody(t, 1, relays[1].Identity.PublicKey.Export()))
	require.Equal(t, http.StatusConflict, w.Code)

	nodes, err := registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, relays[0].Identity.PublicKey.Export(), nodes[0].PubKey)
}

func TestRegistry_MissingFields(t *testing.T) {
	_, router := setupTestRegistry(t)
	relays := testutil.NewTestRelays(t, 1)

	for _, body := range []string{
		`{}`,
		`{"nodeId": 1}`,
		`{"pubKey": "` + relays[0].Identity.PublicKey.Export() + `"}`,
		`not json`,
	} {
		w := postRegister(t, router, body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestRegistry_InvalidKey(t *testing.T) {
	registry, router := setupTestRegistry(t)

	w := postRegister(t, router, registrationBody(t, 1, "bm90IGEga2V5"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	nodes, _ := registry.List(context.Background())
	require.Empty(t, nodes)
}

func TestRegistry_NegativeIDRejected(t *testing.T) {
	registry, router := setupTestRegistry(t)
	relays := testutil.NewTestRelays(t, 1)

	w := postRegister(t, router, registrationBody(t, -1, relays[0].Identity.PublicKey.Export()))
	require.Equal(t, http.StatusBadRequest, w.Code)

	err := registry.Register(context.Background(), -5, relays[0].Identity.PublicKey.Export())
	require.ErrorIs(t, err, ErrInvalidID)

	nodes, _ := registry.List(context.Background())
	require.Empty(t, nodes)
}

func TestRegistry_LoadsFromStore(t *testing.T) {
	relays := testutil.NewTestRelays(t, 1)
	store := NewInMemoryStore()
	require.NoError(t, store.SaveNode(context.Background(), Node{NodeID: 3, PubKey: relays[0].Identity.PublicKey.Export()}))

	registry, err := NewRegistry(context.Background(), &RegistryConfig{Store: store})
	require.NoError(t, err)

	nodes, err := registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	err = registry.Register(context.Background(), 3, relays[0].Identity.PublicKey.Export())
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}
