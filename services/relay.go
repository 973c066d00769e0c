package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/onionnet/crypto"
	"github.com/flashbots/onionnet/directory"
	"github.com/flashbots/onionnet/onion"
	"github.com/flashbots/onionnet/transport"
	"github.com/go-chi/chi/v5"
)

// RelayConfig configures a Relay.
type RelayConfig struct {
	ID         int
	Addressing onion.Addressing
	Directory  directory.Directory
	Transport  transport.Transport
	// PrivateKey is generated when nil.
	PrivateKey *crypto.PrivateKey
	// Debug exposes GET /getPrivateKey.
	Debug bool
	Log   *slog.Logger
}

// Relay is one onion router: it peels a layer off every inbound packet and
// forwards what remains.
type Relay struct {
	id         int
	address    onion.Address
	directory  directory.Directory
	transport  transport.Transport
	privateKey *crypto.PrivateKey
	unwrapper  *onion.Unwrapper
	debug      bool
	log        *slog.Logger
}

// NewRelay creates a relay. The key pair exists from this point on, before the
// relay registers or serves anything.
func NewRelay(config *RelayConfig) (*Relay, error) {
	if config.Addressing == nil {
		return nil, errors.New("relay requires an addressing scheme")
	}
	if config.Transport == nil {
		return nil, errors.New("relay requires a transport")
	}

	address, err := config.Addressing.RelayAddress(config.ID)
	if err != nil {
		return nil, fmt.Errorf("relay %d: %w", config.ID, err)
	}

	privateKey := config.PrivateKey
	if privateKey == nil {
		_, privateKey, err = crypto.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
	}

	log := config.Log
	if log == nil {
		log = slog.Default()
	}

	return &Relay{
		id:         config.ID,
		address:    address,
		directory:  config.Directory,
		transport:  config.Transport,
		privateKey: privateKey,
		unwrapper:  onion.NewUnwrapper(privateKey, config.Addressing),
		debug:      config.Debug,
		log:        log.With("relay", config.ID),
	}, nil
}

// ID returns the relay id.
func (r *Relay) ID() int {
	return r.id
}

// Address returns the address other hops use to reach this relay.
func (r *Relay) Address() onion.Address {
	return r.address
}

// PublicKey returns the relay's public key.
func (r *Relay) PublicKey() *crypto.PublicKey {
	return r.privateKey.PublicKey()
}

// Observations returns the relay's diagnostic state.
func (r *Relay) Observations() onion.ObservationSnapshot {
	return r.unwrapper.Observations().Snapshot()
}

// Start registers the relay with the directory. A relay that is already
// registered under the same key is not an error.
func (r *Relay) Start(ctx context.Context) error {
	if r.directory == nil {
		return nil
	}
	err := r.directory.Register(ctx, r.id, r.PublicKey().Export())
	if errors.Is(err, directory.ErrAlreadyRegistered) && r.registeredWithOwnKey(ctx) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("registry registration failed: %w", err)
	}
	r.log.Info("Relay registered", "address", r.address, "fingerprint", r.PublicKey().Fingerprint())
	return nil
}

func (r *Relay) registeredWithOwnKey(ctx context.Context) bool {
	nodes, err := r.directory.List(ctx)
	if err != nil {
		return false
	}
	own := r.PublicKey().Export()
	for _, n := range nodes {
		if n.NodeID == r.id {
			return n.PubKey == own
		}
	}
	return false
}

// HandleMessage peels one layer from packet and forwards the payload to the
// next hop, returning only after that hop has answered. It matches
// transport.Handler.
func (r *Relay) HandleMessage(ctx context.Context, packet []byte) error {
	inst, err := r.unwrapper.Unwrap(packet)
	if err != nil {
		recordFailure(err)
		r.log.Warn("Could not unwrap packet", "err", err, "class", transport.OriginClass(err))
		return err
	}
	layersUnwrappedTotal.Inc()

	r.log.Debug("Forwarding payload", "kind", inst.Kind, "to", inst.To, "size", len(inst.Payload))

	start := time.Now()
	err = r.transport.Deliver(ctx, inst.To, inst.Payload)
	forwardDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		recordFailure(err)
		r.log.Warn("Could not forward payload", "to", inst.To, "err", err)
		return fmt.Errorf("forward to %s: %w", inst.To, err)
	}
	return nil
}

// RegisterRoutes registers HTTP routes for the relay.
func (r *Relay) RegisterRoutes(router chi.Router) {
	router.Get("/status", handleStatus)
	router.Get("/getLastReceivedEncryptedMessage", r.handleLastEncrypted)
	router.Get("/getLastReceivedDecryptedMessage", r.handleLastDecrypted)
	router.Get("/getLastMessageDestination", r.handleLastDestination)
	if r.debug {
		router.Get("/getPrivateKey", r.handlePrivateKey)
	}
	router.Post("/message", r.handleMessage)
}

func (r *Relay) handleLastEncrypted(w http.ResponseWriter, _ *http.Request) {
	snap := r.Observations()
	if snap.LastEncrypted == nil {
		writeResult(w, nil)
		return
	}
	writeResult(w, snap.LastEncrypted)
}

func (r *Relay) handleLastDecrypted(w http.ResponseWriter, _ *http.Request) {
	snap := r.Observations()
	if snap.LastDecrypted == nil {
		writeResult(w, nil)
		return
	}
	writeResult(w, snap.LastDecrypted)
}

func (r *Relay) handleLastDestination(w http.ResponseWriter, _ *http.Request) {
	snap := r.Observations()
	if snap.LastDestination == nil {
		writeResult(w, nil)
		return
	}
	writeResult(w, uint64(*snap.LastDestination))
}

func (r *Relay) handlePrivateKey(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, r.privateKey.Export())
}

func (r *Relay) handleMessage(w http.ResponseWriter, req *http.Request) {
	packet, err := decodeMessage(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := r.HandleMessage(req.Context(), packet); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &SuccessResponse{Success: true})
}
