// Package config loads server settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the match server configuration.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Game struct {
		TotalRounds int `yaml:"total_rounds"`
	} `yaml:"game"`

	NATS struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"nats"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Game.TotalRounds = 10
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.LogLevel = "info"
	return cfg
}

// Load reads the YAML file at path (skipped when empty or missing) and
// then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if cfg.Game.TotalRounds <= 0 {
		return Config{}, fmt.Errorf("total_rounds must be positive, got %d", cfg.Game.TotalRounds)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("TOTAL_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Game.TotalRounds = n
		}
	}
	if v := os.Getenv("NATS_ENABLED"); v != "" {
		c.NATS.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
