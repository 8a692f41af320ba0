package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/snipsd/snipsd/internal/core/cluster"
)

type ServerConfig struct {
	Port string `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type DedupeConfig struct {
	// Threshold is the weighted-similarity cutoff for grouping. The
	// content/name blend weights are engine constants and intentionally
	// not configurable.
	Threshold float64 `toml:"threshold"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Dedupe   DedupeConfig   `toml:"dedupe"`
}

// Default returns the built-in configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Path: "snips.db"},
		Dedupe:   DedupeConfig{Threshold: cluster.DefaultThreshold},
	}
}

// Load reads a TOML configuration file, layering it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}
