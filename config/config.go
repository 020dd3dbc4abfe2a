// ABOUTME: Focus configuration loaded from the XDG config dir, .env, and environment
// ABOUTME: Applies defaults for missing fields and validates the result
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/harperreed/focus/logging"
)

const (
	// AppName names the XDG directories.
	AppName = "pagen"

	// ConfigFileName is the config file under $XDG_CONFIG_HOME/pagen.
	ConfigFileName = "focus.json"

	BackendSQLite = "sqlite"
	BackendCharm  = "charm"

	DefaultOperator        = "default"
	DefaultBriefingModel   = "claude-sonnet-4-20250514"
	DefaultBriefingTimeout = 15 * time.Second
	DefaultWebPort         = 8420
	DefaultSnoozeDays      = 1
)

// Environment variables that override file settings.
const (
	EnvAPIKey   = "ANTHROPIC_API_KEY"
	EnvOperator = "PAGEN_OPERATOR"
	EnvLogLevel = "PAGEN_LOG_LEVEL"
	EnvDBPath   = "PAGEN_DB_PATH"
	EnvWebPort  = "PAGEN_WEB_PORT"
)

// Duration reads "15s"-style strings or plain seconds from JSON.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Duration(time.Duration(val * float64(time.Second)))
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// Config holds focus settings.
type Config struct {
	// DBPath is the sqlite database (default: $XDG_DATA_HOME/crm/crm.db)
	DBPath string `json:"db_path,omitempty"`

	// OperatorID scopes suppression records to one person.
	OperatorID string `json:"operator_id,omitempty"`

	LogLevel string `json:"log_level,omitempty"`

	// SuppressionBackend is "sqlite" (local) or "charm" (synced across devices).
	SuppressionBackend string `json:"suppression_backend,omitempty"`

	SnoozeDays int `json:"snooze_days,omitempty"`

	BriefingModel   string   `json:"briefing_model,omitempty"`
	BriefingTimeout Duration `json:"briefing_timeout,omitempty"`

	// AnthropicAPIKey enables generated briefings; without it the local summary is used.
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"`

	WebPort int `json:"web_port,omitempty"`
}

// Default returns a config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath()
	}
	if c.OperatorID == "" {
		c.OperatorID = DefaultOperator
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.SuppressionBackend == "" {
		c.SuppressionBackend = BackendSQLite
	}
	if c.SnoozeDays == 0 {
		c.SnoozeDays = DefaultSnoozeDays
	}
	if c.BriefingModel == "" {
		c.BriefingModel = DefaultBriefingModel
	}
	if c.BriefingTimeout == 0 {
		c.BriefingTimeout = Duration(DefaultBriefingTimeout)
	}
	if c.WebPort == 0 {
		c.WebPort = DefaultWebPort
	}
}

// DefaultDBPath is the database location shared with the rest of pagen.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "crm", "crm.db")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// Load reads the config at path (Path() when empty), then .env, then the
// environment. A missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Default().Warn("could not load .env", "error", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.AnthropicAPIKey = v
	}
	if v := os.Getenv(EnvOperator); v != "" {
		c.OperatorID = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvWebPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWebPort, v, err)
		}
		c.WebPort = port
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.OperatorID) == "" {
		errs = append(errs, errors.New("operator_id is required"))
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("invalid log_level %q (debug, info, warn, error)", c.LogLevel))
	}
	if c.SuppressionBackend != BackendSQLite && c.SuppressionBackend != BackendCharm {
		errs = append(errs, fmt.Errorf("invalid suppression_backend %q (sqlite, charm)", c.SuppressionBackend))
	}
	if c.SnoozeDays < 1 || c.SnoozeDays > 365 {
		errs = append(errs, fmt.Errorf("invalid snooze_days %d (must be 1..365)", c.SnoozeDays))
	}
	if c.BriefingTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid briefing_timeout %s (must be positive)", time.Duration(c.BriefingTimeout)))
	}
	if c.WebPort <= 0 || c.WebPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid web_port %d (must be 1..65535)", c.WebPort))
	}

	return errors.Join(errs...)
}

// Save writes the config to path (Path() when empty). The API key is never written.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	out := *c
	out.AnthropicAPIKey = ""
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// HasBriefer reports whether generated briefings are configured.
func (c *Config) HasBriefer() bool {
	return c.AnthropicAPIKey != ""
}
