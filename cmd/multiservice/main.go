// Command multiservice runs a whole onionnet network in one process: the
// registry, relays 0..relays-1 and users 0..users-1, each on its own port.
//
// # Configuration File
//
//	relays: 10
//	users: 2
//	debug: true
//	ports:
//	  registry: 8080
//	  base_relay: 4000
//	  base_user: 3000
//
// # Usage
//
//	go run ./cmd/multiservice --config=onionnet.yaml
//	go run ./cmd/multiservice --relays=5 --users=3
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashbots/onionnet/api/httpserver"
	"github.com/flashbots/onionnet/cmd/common"
	"github.com/flashbots/onionnet/services"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		relays      = flag.Int("relays", -1, "Number of relays")
		users       = flag.Int("users", -1, "Number of users")
		metricsAddr = flag.String("metrics-addr", "", "Prometheus listen address")
		debug       = flag.Bool("debug", false, "Expose GET /getPrivateKey on relays")
	)
	flag.Parse()

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *relays >= 0 {
		cfg.Relays = *relays
	}
	if *users >= 0 {
		cfg.Users = *users
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *debug {
		cfg.Debug = true
	}
	cfg.RegistryURL = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Ports.Registry)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfiguration(configPath string) (*common.Config, error) {
	if configPath != "" {
		return common.LoadConfig(configPath)
	}
	return common.DefaultConfig(), nil
}

func serverConfig(listenAddr string, log *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		Log:                      log,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             60 * time.Second,
	}
}

func run(ctx context.Context, cfg *common.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	log, err := common.SetupLogger(cfg.Log)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	registry, closeStore, err := common.NewRegistry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// The registry server also carries the metrics listener for the process.
	registryCfg := serverConfig(fmt.Sprintf(":%d", cfg.Ports.Registry), log.With("service", "registry"))
	registryCfg.MetricsAddr = cfg.MetricsAddr
	registrySrv, err := httpserver.New(registryCfg, registry)
	if err != nil {
		return err
	}
	g.Go(func() error { return registrySrv.Run(ctx) })

	// Relays register in process; the network only carries packets.
	tr := common.NewTransport(cfg)
	for id := 0; id < cfg.Relays; id++ {
		key, err := common.LoadOrGenerateRelayKey(cfg.RelayKeyPath(id))
		if err != nil {
			return err
		}
		relayLog := log.With("service", fmt.Sprintf("relay-%d", id))
		relay, err := services.NewRelay(&services.RelayConfig{
			ID:         id,
			Addressing: cfg.Ports.PortLayout,
			Directory:  registry,
			Transport:  tr,
			PrivateKey: key,
			Debug:      cfg.Debug,
			Log:        relayLog,
		})
		if err != nil {
			return err
		}
		if err := relay.Start(ctx); err != nil {
			return err
		}
		srv, err := httpserver.New(serverConfig(fmt.Sprintf(":%d", uint64(relay.Address())), relayLog), relay)
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.Run(ctx) })
	}

	for id := 0; id < cfg.Users; id++ {
		userLog := log.With("service", fmt.Sprintf("user-%d", id))
		user, err := services.NewUser(&services.UserConfig{
			ID:         id,
			Addressing: cfg.Ports.PortLayout,
			Directory:  registry,
			Transport:  tr,
			Log:        userLog,
		})
		if err != nil {
			return err
		}
		srv, err := httpserver.New(serverConfig(fmt.Sprintf(":%d", uint64(user.Address())), userLog), user)
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.Run(ctx) })
	}

	log.Info("Network started", "relays", cfg.Relays, "users", cfg.Users, "registry", cfg.RegistryURL)
	return g.Wait()
}
