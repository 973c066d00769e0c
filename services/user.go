package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/flashbots/onionnet/crypto"
	"github.com/flashbots/onionnet/directory"
	"github.com/flashbots/onionnet/onion"
	"github.com/flashbots/onionnet/transport"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// UserConfig configures a User.
type UserConfig struct {
	ID         int
	Addressing onion.Addressing
	Directory  directory.Directory
	Transport  transport.Transport
	// Selector picks circuits. Defaults to uniform random selection.
	Selector onion.PathSelector
	// KeyCache memoizes parsed relay keys. One is created when nil.
	KeyCache *crypto.KeyCache
	Log      *slog.Logger
}

// User is a message endpoint: it wraps outgoing messages and receives
// delivered plaintext.
type User struct {
	id         int
	address    onion.Address
	addressing onion.Addressing
	directory  directory.Directory
	transport  transport.Transport
	builder    *onion.Builder
	keyCache   *crypto.KeyCache
	log        *slog.Logger

	mu           sync.RWMutex
	lastReceived []byte
	lastSent     []byte
	lastCircuit  []int
}

// SendResult describes an accepted send.
type SendResult struct {
	MessageID uuid.UUID
	Circuit   []int
}

// NewUser creates a user endpoint.
func NewUser(config *UserConfig) (*User, error) {
	if config.Addressing == nil {
		return nil, errors.New("user requires an addressing scheme")
	}
	if config.Directory == nil || config.Transport == nil {
		return nil, errors.New("user requires a directory and a transport")
	}

	address, err := config.Addressing.UserAddress(config.ID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", config.ID, err)
	}

	keyCache := config.KeyCache
	if keyCache == nil {
		keyCache, err = crypto.NewKeyCache(crypto.DefaultKeyCacheSize)
		if err != nil {
			return nil, err
		}
	}

	log := config.Log
	if log == nil {
		log = slog.Default()
	}

	return &User{
		id:         config.ID,
		address:    address,
		addressing: config.Addressing,
		directory:  config.Directory,
		transport:  config.Transport,
		builder:    onion.NewBuilder(config.Addressing, config.Selector),
		keyCache:   keyCache,
		log:        log.With("user", config.ID),
	}, nil
}

// ID returns the user id.
func (u *User) ID() int {
	return u.id
}

// Address returns the address relays deliver to for this user.
func (u *User) Address() onion.Address {
	return u.address
}

// Send wraps message for destinationUserID, hands it to the entry relay and
// waits until the whole circuit has delivered it or failed.
func (u *User) Send(ctx context.Context, message []byte, destinationUserID int) (*SendResult, error) {
	id := uuid.New()
	log := u.log.With("messageId", id)

	result, err := u.send(ctx, message, destinationUserID, log)
	if err != nil {
		recordFailure(err)
		log.Warn("Send failed", "destination", destinationUserID, "err", err, "class", transport.OriginClass(err))
		return nil, err
	}
	result.MessageID = id
	log.Info("Message sent", "destination", destinationUserID, "circuit", result.Circuit)
	return result, nil
}

func (u *User) send(ctx context.Context, message []byte, destinationUserID int, log *slog.Logger) (*SendResult, error) {
	if len(message) == 0 {
		return nil, onion.ErrMissingMessage
	}
	destination, err := u.addressing.UserAddress(destinationUserID)
	if err != nil {
		return nil, err
	}

	snapshot, err := directory.Snapshot(ctx, u.directory, u.keyCache)
	if err != nil {
		return nil, err
	}

	built, err := u.builder.Build(message, destination, snapshot)
	if err != nil {
		return nil, err
	}
	packetsBuiltTotal.Inc()

	circuit := built.Circuit.IDs()
	u.mu.Lock()
	u.lastCircuit = circuit
	u.mu.Unlock()

	log.Debug("Delivering to entry relay", "entry", built.Entry, "size", len(built.Packet))
	if err := u.transport.Deliver(ctx, built.Entry, built.Packet); err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.lastSent = bytes.Clone(message)
	u.mu.Unlock()

	return &SendResult{Circuit: slices.Clone(circuit)}, nil
}

// HandleMessage stores a delivered plaintext. It matches transport.Handler.
func (u *User) HandleMessage(_ context.Context, payload []byte) error {
	if len(payload) == 0 {
		return onion.ErrMissingMessage
	}
	u.mu.Lock()
	u.lastReceived = bytes.Clone(payload)
	u.mu.Unlock()
	u.log.Debug("Message received", "size", len(payload))
	return nil
}

// LastReceived returns the last delivered plaintext, or nil.
func (u *User) LastReceived() []byte {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return bytes.Clone(u.lastReceived)
}

// LastSent returns the last successfully sent message, or nil.
func (u *User) LastSent() []byte {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return bytes.Clone(u.lastSent)
}

// LastCircuit returns the relay ids of the last built circuit, or nil.
func (u *User) LastCircuit() []int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.lastCircuit)
}

// SendMessageRequest is the body of POST /sendMessage.
type SendMessageRequest struct {
	Message           string `json:"message"`
	DestinationUserID *int   `json:"destinationUserId"`
}

// SendMessageResponse is the reply to a successful send.
type SendMessageResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Circuit   []int  `json:"circuit"`
}

// RegisterRoutes registers HTTP routes for the user.
func (u *User) RegisterRoutes(router chi.Router) {
	router.Get("/status", handleStatus)
	router.Get("/getLastReceivedMessage", u.handleLastReceived)
	router.Get("/getLastSentMessage", u.handleLastSent)
	router.Get("/getLastCircuit", u.handleLastCircuit)
	router.Post("/message", u.handleMessage)
	router.Post("/sendMessage", u.handleSendMessage)
}

func (u *User) handleLastReceived(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, optionalString(u.LastReceived()))
}

func (u *User) handleLastSent(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, optionalString(u.LastSent()))
}

func (u *User) handleLastCircuit(w http.ResponseWriter, _ *http.Request) {
	circuit := u.LastCircuit()
	if circuit == nil {
		writeResult(w, nil)
		return
	}
	writeResult(w, circuit)
}

func (u *User) handleMessage(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeMessage(r)
	if err == nil {
		err = u.HandleMessage(r.Context(), payload)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &SuccessResponse{Success: true})
}

func (u *User) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body: %v", onion.ErrMissingMessage, err))
		return
	}
	if body.Message == "" || body.DestinationUserID == nil {
		writeError(w, fmt.Errorf("%w: message and destinationUserId are required", onion.ErrMissingMessage))
		return
	}

	result, err := u.Send(r.Context(), []byte(body.Message), *body.DestinationUserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &SendMessageResponse{
		Success:   true,
		MessageID: result.MessageID.String(),
		Circuit:   result.Circuit,
	})
}

func optionalString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
