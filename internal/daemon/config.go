// Package daemon manages the Rover daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Poller    PollerConfig    `toml:"poller"`
	Party     PartyConfig     `toml:"party"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Notify    NotifyConfig    `toml:"notify"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PollerConfig controls the due-expedition polling loop.
type PollerConfig struct {
	Interval string `toml:"interval"` // e.g. "5s"
}

// PartyConfig controls party formation.
type PartyConfig struct {
	JoinWindow   string `toml:"join_window"`   // e.g. "60s"
	DiscardAfter string `toml:"discard_after"` // retention of completed parties
}

// CatalogConfig controls the outcome catalog source.
type CatalogConfig struct {
	File string `toml:"file"` // empty = builtin catalog
}

// NotifyConfig controls outcome delivery.
type NotifyConfig struct {
	WebhookURL string `toml:"webhook_url"` // empty = log only
	Timeout    string `toml:"timeout"`     // bound on one delivery
}

// TelemetryConfig controls observability.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7341,
		},
		Poller: PollerConfig{
			Interval: "5s",
		},
		Party: PartyConfig{
			JoinWindow:   "60s",
			DiscardAfter: "5m",
		},
		Notify: NotifyConfig{
			Timeout: "10s",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from $ROVER_HOME/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(roverHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to $ROVER_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(roverHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// roverHome returns the Rover data directory.
func roverHome() string {
	if env := os.Getenv("ROVER_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rover")
}

// RoverHome is exported for use by other packages.
func RoverHome() string {
	return roverHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
