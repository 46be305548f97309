// Package config loads the kiosk configuration file (kiosk.yaml by default).
// Secrets and connection strings stay in the environment; this file holds the
// per-kiosk operational knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config file is looked up when KIOSK_CONFIG is unset.
const DefaultPath = "kiosk.yaml"

// Config represents the contents of kiosk.yaml.
type Config struct {
	// KioskID identifies this kiosk's row in kiosk_status.
	KioskID string `yaml:"kiosk_id"`
	// BridgeURL is the card reader bridge endpoint, e.g. http://localhost:5001.
	// Empty disables the bridge poller.
	BridgeURL string `yaml:"bridge_url"`
	// BridgePollMillis is the card reader poll interval.
	BridgePollMillis int `yaml:"bridge_poll_millis"`
	// LowStockThreshold triggers a restock notification when post-sale stock
	// falls to or below it.
	LowStockThreshold int `yaml:"low_stock_threshold"`
	// ReconnectBackoffSeconds is the fixed delay before a realtime listener
	// re-subscribes after a failure.
	ReconnectBackoffSeconds int `yaml:"reconnect_backoff_seconds"`
}

func defaultConfig() *Config {
	return &Config{
		KioskID:                 "kiosk-1",
		BridgeURL:               "http://localhost:5001",
		BridgePollMillis:        1000,
		LowStockThreshold:       3,
		ReconnectBackoffSeconds: 3,
	}
}

// Load reads the config file at path, or KIOSK_CONFIG, or DefaultPath.
// Returns defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("KIOSK_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.KioskID == "" {
		return nil, fmt.Errorf("config %s: kiosk_id must not be empty", path)
	}
	if cfg.BridgePollMillis <= 0 {
		cfg.BridgePollMillis = 1000
	}
	if cfg.ReconnectBackoffSeconds <= 0 {
		cfg.ReconnectBackoffSeconds = 3
	}
	return cfg, nil
}

// BridgePollInterval returns the poll interval as a duration.
func (c *Config) BridgePollInterval() time.Duration {
	return time.Duration(c.BridgePollMillis) * time.Millisecond
}

// ReconnectBackoff returns the re-subscribe delay as a duration.
func (c *Config) ReconnectBackoff() time.Duration {
	return time.Duration(c.ReconnectBackoffSeconds) * time.Second
}
