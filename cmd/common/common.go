// Package common provides shared utilities for onionnet CLI commands.
//
// This package contains helpers used across the standalone binaries
// (registry, relay, user, multiservice):
//
//   - YAML configuration with defaults and validation
//   - Logger construction
//   - Relay key loading and generation
//   - Directory construction (registry store, registry client)
package common

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flashbots/onionnet/crypto"
	"github.com/flashbots/onionnet/directory"
	"github.com/flashbots/onionnet/transport"
)

// SetupLogger builds the process logger from cfg and installs it as the slog default.
func SetupLogger(cfg LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	log := slog.New(handler)
	if cfg.Service != "" {
		log = log.With("service", cfg.Service)
	}
	slog.SetDefault(log)
	return log, nil
}

// LoadOrGenerateRelayKey reads a PEM private key from path. When path is empty
// a fresh key is generated. When path does not exist a fresh key is generated
// and written there, so a restarted relay keeps its registered identity.
func LoadOrGenerateRelayKey(path string) (*crypto.PrivateKey, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return crypto.ParsePrivateKeyPEM(data)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read relay key: %w", err)
		}
	}

	_, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create key dir: %w", err)
		}
		if err := os.WriteFile(path, priv.PEM(), 0o600); err != nil {
			return nil, fmt.Errorf("write relay key: %w", err)
		}
	}
	return priv, nil
}

// NewRegistry creates the registry backed by Postgres when configured, or by
// memory otherwise. The returned close function releases the store.
func NewRegistry(ctx context.Context, cfg *Config, log *slog.Logger) (*directory.Registry, func() error, error) {
	var store directory.Store = directory.NewInMemoryStore()
	if cfg.Postgres != nil {
		pg, err := directory.NewPostgresStore(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		store = pg
		log.Info("Using postgres directory store", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	registry, err := directory.NewRegistry(ctx, &directory.RegistryConfig{
		Store:          store,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return registry, store.Close, nil
}

// NewDirectoryClient returns a client for the configured registry.
func NewDirectoryClient(cfg *Config) *directory.Client {
	return directory.NewClient(cfg.RegistryURL, nil)
}

// NewTransport returns an HTTP transport resolving addresses to ports on cfg.Host.
func NewTransport(cfg *Config) *transport.HTTPTransport {
	return transport.NewHTTPTransport(transport.HostResolver{Host: cfg.Host}, nil)
}
