package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())

	ttl, err := cfg.Session.ParseTTL()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "daybook.yaml")
	cfg := Default()
	cfg.Server.Addr = ":9090"
	cfg.Events = EventsConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "closes"}
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", loaded.Server.Addr)
	assert.Equal(t, []string{"localhost:9092"}, loaded.Events.Brokers)
}

func TestJSONFallback(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "daybook.json")
	require.NoError(t, Default().SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", loaded.Store.Backend)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing addr", func(c *Config) { c.Server.Addr = "" }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "etcd" }},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }},
		{"postgres without dsn", func(c *Config) { c.Store = StoreConfig{Backend: "postgres"} }},
		{"bad ttl", func(c *Config) { c.Session.TTL = "soon" }},
		{"events without brokers", func(c *Config) { c.Events.Enabled = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
