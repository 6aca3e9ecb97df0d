package cli

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional cellgraph config file, YAML-formatted:
//
//	db: cellgraph.db
//	log_level: debug
type Config struct {
	DB       string `yaml:"db"`
	LogLevel string `yaml:"log_level"`
}

// LoadConfig reads a YAML config file. A missing path returns the zero
// config; a present but unreadable or malformed file is an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the config's log_level to a slog level.
// Unknown or empty levels default to Info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
