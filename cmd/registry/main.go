// Command registry runs the onionnet relay directory.
//
// Relays register their public keys here; users list them to build circuits.
//
// # Endpoints
//
//   - GET /status - Liveness, answers "live"
//   - POST /registerNode - Register {nodeId, pubKey}; 409 if the id is taken
//   - GET /getNodeRegistry - List {nodes: [{nodeId, pubKey}]}
//
// Registrations are kept in memory unless a postgres section is configured.
//
// # Usage
//
//	go run ./cmd/registry --config=onionnet.yaml
//	go run ./cmd/registry --addr=:8080
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
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		addr        = flag.String("addr", "", "HTTP listen address (default :<ports.registry>)")
		metricsAddr = flag.String("metrics-addr", "", "Prometheus listen address")
		logJSON     = flag.Bool("log-json", false, "Log as JSON")
	)
	flag.Parse()

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *logJSON {
		cfg.Log.JSON = true
	}
	cfg.Log.Service = "registry"

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%d", cfg.Ports.Registry)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, listenAddr); err != nil {
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

func run(ctx context.Context, cfg *common.Config, listenAddr string) error {
	log, err := common.SetupLogger(cfg.Log)
	if err != nil {
		return err
	}

	registry, closeStore, err := common.NewRegistry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              cfg.MetricsAddr,
		Log:                      log,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
	}, registry)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
