// Command relay runs a single onionnet relay.
//
// The relay generates (or loads) its key pair, registers with the registry and
// then serves on port ports.base_relay + id.
//
// # Usage
//
//	go run ./cmd/relay --id=1 --registry=http://localhost:8080
//	go run ./cmd/relay --config=onionnet.yaml --id=1 --debug
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashbots/onionnet/api/httpserver"
	"github.com/flashbots/onionnet/cmd/common"
	"github.com/flashbots/onionnet/services"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		id          = flag.Int("id", 0, "Relay id")
		registryURL = flag.String("registry", "", "Registry URL")
		keyFile     = flag.String("key", "", "PEM private key file, created if missing")
		metricsAddr = flag.String("metrics-addr", "", "Prometheus listen address")
		debug       = flag.Bool("debug", false, "Expose GET /getPrivateKey")
	)
	flag.Parse()

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *registryURL != "" {
		cfg.RegistryURL = *registryURL
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *debug {
		cfg.Debug = true
	}
	cfg.Log.Service = fmt.Sprintf("relay-%d", *id)

	path := *keyFile
	if path == "" {
		path = cfg.RelayKeyPath(*id)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *id, path); err != nil {
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

func run(ctx context.Context, cfg *common.Config, id int, keyPath string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	log, err := common.SetupLogger(cfg.Log)
	if err != nil {
		return err
	}

	key, err := common.LoadOrGenerateRelayKey(keyPath)
	if err != nil {
		return err
	}

	relay, err := services.NewRelay(&services.RelayConfig{
		ID:         id,
		Addressing: cfg.Ports.PortLayout,
		Directory:  common.NewDirectoryClient(cfg),
		Transport:  common.NewTransport(cfg),
		PrivateKey: key,
		Debug:      cfg.Debug,
		Log:        log,
	})
	if err != nil {
		return err
	}

	if err := relay.Start(ctx); err != nil {
		return err
	}

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               fmt.Sprintf(":%d", uint64(relay.Address())),
		MetricsAddr:              cfg.MetricsAddr,
		Log:                      log,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             60 * time.Second,
	}, relay)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
