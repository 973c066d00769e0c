package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flashbots/onionnet/onion"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`relays: 4`))
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Relays)
	require.Equal(t, 2, cfg.Users)
	require.Equal(t, onion.DefaultPortLayout, cfg.Ports.PortLayout)
	require.Equal(t, 8080, cfg.Ports.Registry)
	require.Nil(t, cfg.Postgres)
	require.NoError(t, cfg.Validate())
}

func TestParseConfig_Full(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
log:
  level: debug
  json: true
host: 10.0.0.1
ports:
  registry: 9000
  base_relay: 5000
  base_user: 6000
  span: 100
postgres:
  host: db
  port: 5432
  database: onionnet
`))
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Log.JSON)
	require.Equal(t, "10.0.0.1", cfg.Host)
	require.Equal(t, onion.PortLayout{BaseRelayPort: 5000, BaseUserPort: 6000, Span: 100}, cfg.Ports.PortLayout)
	require.Equal(t, "db", cfg.Postgres.Host)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	overlap := DefaultConfig()
	overlap.Ports.BaseUserPort = 4500
	require.Error(t, overlap.Validate())

	registryInRange := DefaultConfig()
	registryInRange.Ports.Registry = 4001
	require.Error(t, registryInRange.Validate())

	tooMany := DefaultConfig()
	tooMany.Relays = 1001
	require.Error(t, tooMany.Validate())

	badPort := DefaultConfig()
	badPort.Ports.BaseRelayPort = 65000
	require.Error(t, badPort.Validate())
}

func TestSetupLogger(t *testing.T) {
	log, err := SetupLogger(LogConfig{Level: "warn", Service: "relay"})
	require.NoError(t, err)
	require.NotNil(t, log)

	_, err = SetupLogger(LogConfig{Level: "loud"})
	require.Error(t, err)
}

func TestLoadOrGenerateRelayKey(t *testing.T) {
	ephemeral, err := LoadOrGenerateRelayKey("")
	require.NoError(t, err)
	require.NotNil(t, ephemeral)

	path := filepath.Join(t.TempDir(), "relay-1.pem")
	first, err := LoadOrGenerateRelayKey(path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	second, err := LoadOrGenerateRelayKey(path)
	require.NoError(t, err)
	require.True(t, first.PublicKey().Equal(second.PublicKey()))
}

func TestLoadOrGenerateRelayKey_CreatesKeyDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeyDir = filepath.Join(t.TempDir(), "state", "keys")
	path := cfg.RelayKeyPath(2)

	key, err := LoadOrGenerateRelayKey(path)
	require.NoError(t, err)

	info, err := os.Stat(cfg.KeyDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	reloaded, err := LoadOrGenerateRelayKey(path)
	require.NoError(t, err)
	require.True(t, key.PublicKey().Equal(reloaded.PublicKey()))
}

func TestRelayKeyPath(t *testing.T) {
	cfg := DefaultConfig()
	require.Empty(t, cfg.RelayKeyPath(3))
	cfg.KeyDir = "/var/lib/onionnet"
	require.Equal(t, "/var/lib/onionnet/relay-3.pem", cfg.RelayKeyPath(3))
}
