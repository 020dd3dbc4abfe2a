// ABOUTME: Configuration for the Charm KV backend holding suppression records
// ABOUTME: Server host, auto-sync, and an offline mode that keeps the KV local

package charm

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName is the application name for Charm KV database.
	AppName = "pagen"

	// ConfigFileName is where we store local config.
	ConfigFileName = "charm-config.json"

	// EnvHost overrides the configured host.
	EnvHost = "PAGEN_CHARM_HOST"
)

// Config holds charm connection settings.
type Config struct {
	// Host is the charm server hostname (default: charm.2389.dev)
	Host string `json:"host,omitempty"`

	// AutoSync pushes every write to the server immediately.
	AutoSync bool `json:"auto_sync"`

	// Offline keeps suppressions in a local BadgerDB and never contacts the server.
	Offline bool `json:"offline,omitempty"`

	// StaleThreshold is the duration before data is considered stale and needs a sync
	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

func dataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// LocalDir is where the offline KV lives.
func LocalDir() string {
	return filepath.Join(dataDir(), "kv")
}

func configPath() (string, error) {
	dir := dataDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// LoadConfig loads config from disk, or returns defaults if not found.
func LoadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		// Can't determine config path, use defaults
		return DefaultConfig(), nil //nolint:nilerr // Intentionally returning defaults on path error
	}
	return loadConfigFrom(path)
}

func loadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return withEnv(DefaultConfig()), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Invalid config, use defaults
		return withEnv(DefaultConfig()), nil //nolint:nilerr // Intentionally returning defaults on parse error
	}

	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}
	if cfg.StaleThreshold == 0 {
		cfg.StaleThreshold = kv.DefaultStaleThreshold
	}
	return withEnv(&cfg), nil
}

func withEnv(cfg *Config) *Config {
	if host := os.Getenv(EnvHost); host != "" {
		cfg.Host = host
	}
	return cfg
}

// Save persists the config to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.saveTo(path)
}

func (c *Config) saveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SetAutoSync enables or disables auto-sync and saves.
func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}

// SetOffline switches between the local KV and charm cloud and saves.
func (c *Config) SetOffline(offline bool) error {
	c.Offline = offline
	return c.Save()
}

// Open returns the client cfg describes: a local BadgerDB when offline,
// otherwise the charm cloud KV.
func Open(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Offline {
		return OpenLocal(LocalDir(), cfg)
	}
	return NewClient(cfg)
}
