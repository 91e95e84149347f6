// Package config loads the node configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blockberries/ledger/genesis"
	"github.com/blockberries/ledger/logging"
	"github.com/blockberries/ledger/store"
)

// Server is the network section of the config.
type Server struct {
	// ListenAddr is where the consensus engine connects (gRPC).
	ListenAddr string `yaml:"listenAddr"`
	// MetricsAddr serves /metrics. Empty disables it.
	MetricsAddr string `yaml:"metricsAddr"`
}

// Config is the full node configuration.
type Config struct {
	Chain  genesis.Config `yaml:"chain"`
	DB     store.Config   `yaml:"db"`
	Server Server         `yaml:"server"`
	Log    logging.Config `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Chain: genesis.DefaultConfig,
		DB:    store.DefaultConfig,
		Server: Server{
			ListenAddr:  "127.0.0.1:26658",
			MetricsAddr: "127.0.0.1:26660",
		},
		Log: logging.DefaultConfig,
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks for settings the node cannot start with.
func (c Config) Validate() error {
	if err := c.Chain.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.DB.Path == "" {
		return errors.New("config: db.path is required")
	}
	if c.Server.ListenAddr == "" {
		return errors.New("config: server.listenAddr is required")
	}
	return nil
}
