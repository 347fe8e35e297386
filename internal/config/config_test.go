package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

// TestPurpose: Validates the configuration layering order.
// Scope: Unit Test
// Expected: Environment overrides the YAML file, which overrides defaults.
// Test Case ID: CFG-01
func TestLoad_Layering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clubcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
store:
  driver: memory
invites:
  ttl: 48h
resolver:
  limit: 250
`), 0o600))

	t.Setenv("JWT_SECRET", secret)
	t.Setenv("INVITE_TTL", "72h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 72*time.Hour, cfg.Invites.TTL)
	assert.Equal(t, 250, cfg.Resolver.Limit)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
}

// TestPurpose: Validates required settings.
// Scope: Unit Test
// Security: Refuses to start with a weak token secret or without database credentials
// Expected: Load fails and names every problem.
// Test Case ID: CFG-02
func TestLoad_Validation(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("RESOLVER_LIMIT", "5000")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD is required")
	assert.Contains(t, err.Error(), "JWT_SECRET must be at least 32 bytes")
	assert.Contains(t, err.Error(), "resolver.limit")

	t.Setenv("JWT_SECRET", secret)
	require.NoError(t, os.Unsetenv("RESOLVER_LIMIT"))
	t.Setenv("DB_PASSWORD", "pw")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 1000, cfg.Resolver.Limit)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
