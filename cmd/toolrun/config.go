package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skosovsky/toolrun"
)

// Config is the YAML configuration of the toolrun command. Flags override it.
type Config struct {
	Timeout    time.Duration `yaml:"timeout"`
	Concurrent bool          `yaml:"concurrent"`
	LogLevel   string        `yaml:"log_level"`
	ChunkSize  int           `yaml:"chunk_size"`
}

func defaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		LogLevel:  "warn",
		ChunkSize: toolrun.DefaultChunkSize,
	}
}

// loadConfig reads path over the defaults. An empty path returns the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.ChunkSize < 0 {
		return errors.New("chunk_size must not be negative")
	}
	_, err := c.level()
	return err
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

func (c Config) mode() toolrun.ExecMode {
	if c.Concurrent {
		return toolrun.Concurrent
	}
	return toolrun.Sequential
}
