package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/flashbots/onionnet/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Store persists registrations. Defaults to an InMemoryStore.
	Store Store
	// AllowedOrigins for CORS on the public routes. Defaults to any origin.
	AllowedOrigins []string
	Log            *slog.Logger
}

// Registry is the in-process Directory and its HTTP front end.
type Registry struct {
	store          Store
	allowedOrigins []string
	log            *slog.Logger

	mu    sync.RWMutex
	nodes []Node
	ids   map[int]struct{}
}

// NewRegistry creates a registry, loading any nodes already in the store.
func NewRegistry(ctx context.Context, config *RegistryConfig) (*Registry, error) {
	if config == nil {
		config = &RegistryConfig{}
	}
	r := &Registry{
		store:          config.Store,
		allowedOrigins: config.AllowedOrigins,
		log:            config.Log,
		ids:            make(map[int]struct{}),
	}
	if r.store == nil {
		r.store = NewInMemoryStore()
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if len(r.allowedOrigins) == 0 {
		r.allowedOrigins = []string{"*"}
	}

	existing, err := r.store.LoadNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	for _, n := range existing {
		r.nodes = append(r.nodes, n)
		r.ids[n.NodeID] = struct{}{}
	}
	return r, nil
}

// Register implements Directory. Registration is first writer wins.
func (r *Registry) Register(ctx context.Context, id int, pubKey string) error {
	if id < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	if pubKey == "" {
		return ErrMissingField
	}
	key, err := crypto.ImportPublicKey(pubKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[id]; exists {
		return ErrAlreadyRegistered
	}
	n := Node{NodeID: id, PubKey: pubKey}
	if err := r.store.SaveNode(ctx, n); err != nil {
		return err
	}
	r.nodes = append(r.nodes, n)
	r.ids[id] = struct{}{}

	r.log.Info("Node registered", "nodeId", id, "fingerprint", key.Fingerprint())
	return nil
}

// List implements Directory.
func (r *Registry) List(context.Context) ([]Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.nodes), nil
}

// RegisterRoutes registers the registry HTTP API.
func (r *Registry) RegisterRoutes(router chi.Router) {
	router.Group(func(router chi.Router) {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: r.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}))

		router.Get("/status", handleStatus)
		router.Post("/registerNode", r.handleRegisterNode)
		router.Get("/getNodeRegistry", r.handleGetNodeRegistry)
	})
}

// RegisterNodeRequest is the body of POST /registerNode.
type RegisterNodeRequest struct {
	NodeID *int   `json:"nodeId"`
	PubKey string `json:"pubKey"`
}

// RegisterNodeResponse is the reply to a successful registration.
type RegisterNodeResponse struct {
	Success bool `json:"success"`
}

// NodeRegistryResponse is the body of GET /getNodeRegistry.
type NodeRegistryResponse struct {
	Nodes []Node `json:"nodes"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("live"))
}

func (r *Registry) handleRegisterNode(w http.ResponseWriter, req *http.Request) {
	var body RegisterNodeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	if body.NodeID == nil || body.PubKey == "" {
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: ErrMissingField.Error()})
		return
	}

	err := r.Register(req.Context(), *body.NodeID, body.PubKey)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, &RegisterNodeResponse{Success: true})
	case errors.Is(err, ErrAlreadyRegistered):
		writeJSON(w, http.StatusConflict, &ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidID), errors.Is(err, ErrMissingField):
		writeJSON(w, http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
	default:
		r.log.Error("Could not register node", "nodeId", *body.NodeID, "err", err)
		writeJSON(w, http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
	}
}

func (r *Registry) handleGetNodeRegistry(w http.ResponseWriter, req *http.Request) {
	nodes, _ := r.List(req.Context())
	if nodes == nil {
		nodes = []Node{}
	}
	writeJSON(w, http.StatusOK, &NodeRegistryResponse{Nodes: nodes})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
