// Command user runs a single onionnet user endpoint on port ports.base_user + id.
//
// # Usage
//
//	go run ./cmd/user --id=0 --registry=http://localhost:8080
//
// Then send a message to user 1:
//
//	curl -X POST localhost:3000/sendMessage -d '{"message":"hello","destinationUserId":1}'
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
		id          = flag.Int("id", 0, "User id")
		registryURL = flag.String("registry", "", "Registry URL")
		metricsAddr = flag.String("metrics-addr", "", "Prometheus listen address")
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
	cfg.Log.Service = fmt.Sprintf("user-%d", *id)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *id); err != nil {
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

func run(ctx context.Context, cfg *common.Config, id int) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	log, err := common.SetupLogger(cfg.Log)
	if err != nil {
		return err
	}

	user, err := services.NewUser(&services.UserConfig{
		ID:         id,
		Addressing: cfg.Ports.PortLayout,
		Directory:  common.NewDirectoryClient(cfg),
		Transport:  common.NewTransport(cfg),
		Log:        log,
	})
	if err != nil {
		return err
	}

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               fmt.Sprintf(":%d", uint64(user.Address())),
		MetricsAddr:              cfg.MetricsAddr,
		Log:                      log,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             60 * time.Second,
	}, user)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
