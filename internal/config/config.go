package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/caarlos0/env/v11"
)

const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config is the server configuration. Every field can be set from the
// environment; the CLI overrides individual values with flags.
type Config struct {
	Addr            string        `env:"TOKIP_ADDR"             envDefault:":8080"`
	RPCSocket       string        `env:"TOKIP_RPC_SOCKET"       envDefault:"/tmp/tokip.sock"`
	Store           string        `env:"TOKIP_STORE"            envDefault:"sqlite"`
	DBPath          string        `env:"TOKIP_DB_PATH"          envDefault:"tokip.db"`
	DeletePolicy    string        `env:"TOKIP_DELETE_POLICY"    envDefault:"cascade"`
	LogLevel        string        `env:"TOKIP_LOG_LEVEL"        envDefault:"info"`
	LogFormat       string        `env:"TOKIP_LOG_FORMAT"       envDefault:"text"`
	ShutdownTimeout time.Duration `env:"TOKIP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("http address is required")
	}
	switch c.Store {
	case StoreSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("db path is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want sqlite or memory)", c.Store)
	}
	if _, err := application.ParseDeletePolicy(c.DeletePolicy); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// Policy returns the parsed delete policy. Call Validate first.
func (c Config) Policy() application.DeletePolicy {
	policy, _ := application.ParseDeletePolicy(c.DeletePolicy)
	return policy
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

// NewLogger builds the process logger writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := c.Level()
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
