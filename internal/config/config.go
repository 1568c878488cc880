package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/limitr/limitr/pkg/limiter"
)

// Config is the top-level configuration for a limitr session.
type Config struct {
	Server  ServerConfig   `json:"server"`
	Limiter limiter.Config `json:"limiter"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `json:"addr"`
	// KeyTTL controls how long an idle key keeps its limiter before the
	// server drops it. 0 disables eviction.
	KeyTTL time.Duration `json:"key_ttl"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:   ":8080",
			KeyTTL: 10 * time.Minute,
		},
		Limiter: limiter.Config{
			Algorithm: limiter.AlgorithmTokenBucket,
			Rate:      10,
			Window:    time.Minute,
			Burst:     10,
		},
	}
}

// Validate checks that the config is valid.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	if c.Server.KeyTTL < 0 {
		return fmt.Errorf("key TTL must not be negative, got %s", c.Server.KeyTTL)
	}
	if err := c.Limiter.Validate(); err != nil {
		return fmt.Errorf("limiter: %w", err)
	}
	return nil
}

// LoadFile reads a JSON config file and merges it with defaults.
// Fields not specified in the file retain their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	// Use a raw intermediate struct to handle duration parsing.
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if raw.Server.Addr != "" {
		cfg.Server.Addr = raw.Server.Addr
	}
	if raw.Server.KeyTTL != "" {
		d, err := time.ParseDuration(raw.Server.KeyTTL)
		if err != nil {
			return cfg, fmt.Errorf("parsing server.key_ttl: %w", err)
		}
		cfg.Server.KeyTTL = d
	}
	if raw.Limiter.Algorithm != "" {
		cfg.Limiter.Algorithm = limiter.Algorithm(raw.Limiter.Algorithm)
	}
	if raw.Limiter.Rate > 0 {
		cfg.Limiter.Rate = raw.Limiter.Rate
	}
	if raw.Limiter.Window != "" {
		d, err := time.ParseDuration(raw.Limiter.Window)
		if err != nil {
			return cfg, fmt.Errorf("parsing limiter.window: %w", err)
		}
		cfg.Limiter.Window = d
	}
	if raw.Limiter.Burst > 0 {
		cfg.Limiter.Burst = raw.Limiter.Burst
	}

	return cfg, nil
}

// rawConfig is the JSON-friendly representation with string durations.
type rawConfig struct {
	Server struct {
		Addr   string `json:"addr"`
		KeyTTL string `json:"key_ttl"`
	} `json:"server"`
	Limiter struct {
		Algorithm string `json:"algorithm"`
		Rate      int    `json:"rate"`
		Window    string `json:"window"`
		Burst     int    `json:"burst"`
	} `json:"limiter"`
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	example := `{
  "server": {
    "addr": ":8080",
    "key_ttl": "10m"
  },
  "limiter": {
    "algorithm": "token_bucket",
    "rate": 10,
    "window": "1m",
    "burst": 10
  }
}
`
	return os.WriteFile(path, []byte(example), 0o644)
}
