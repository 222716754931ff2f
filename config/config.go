// Package config loads and validates the daybook configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete daybook configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Session SessionConfig `json:"session" yaml:"session"`
	Events  EventsConfig  `json:"events" yaml:"events"`
}

// ServerConfig contains HTTP listener parameters.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// StoreConfig selects and configures the ledger storage backend.
type StoreConfig struct {
	Backend string `json:"backend" yaml:"backend"` // "memory", "sqlite" or "postgres"
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	DSN     string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// SessionConfig contains session parameters.
type SessionConfig struct {
	TTL string `json:"ttl" yaml:"ttl"` // e.g. "24h"
}

// ParseTTL converts the TTL string to a time.Duration.
func (s SessionConfig) ParseTTL() (time.Duration, error) {
	if s.TTL == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(s.TTL)
}

// EventsConfig configures the optional Kafka publisher.
type EventsConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers,omitempty" yaml:"brokers,omitempty"`
	Topic   string   `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing the format by extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for sqlite backend")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn required for postgres backend")
		}
	default:
		return fmt.Errorf("store.backend must be 'memory', 'sqlite' or 'postgres'")
	}
	if _, err := c.Session.ParseTTL(); err != nil {
		return fmt.Errorf("session.ttl: %w", err)
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers required when events are enabled")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Store:   StoreConfig{Backend: "sqlite", Path: "./daybook.sqlite"},
		Session: SessionConfig{TTL: "24h"},
		Events:  EventsConfig{Enabled: false, Topic: "day_finalized"},
	}
}
