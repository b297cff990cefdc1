package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/tmp/tokip.sock", cfg.RPCSocket)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "tokip.db", cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, application.DeleteCascade, cfg.Policy())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TOKIP_STORE", "memory")
	t.Setenv("TOKIP_DELETE_POLICY", "restrict")
	t.Setenv("TOKIP_LOG_LEVEL", "debug")
	t.Setenv("TOKIP_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, application.DeleteRestrict, cfg.Policy())
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("TOKIP_SHUTDOWN_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"store":   func(c *Config) { c.Store = "postgres" },
		"policy":  func(c *Config) { c.DeletePolicy = "orphan" },
		"level":   func(c *Config) { c.LogLevel = "loud" },
		"format":  func(c *Config) { c.LogFormat = "xml" },
		"db path": func(c *Config) { c.DBPath = " " },
		"timeout": func(c *Config) { c.ShutdownTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "kind", "theme")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"kind":"theme"`)
}
