package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions (the file can hold Pronote credentials).

// PronoteConfig holds everything needed to reach the Pronote backend.
type PronoteConfig struct {
	// BridgeURL is the pronotepy bridge endpoint, e.g. "http://127.0.0.1:9000".
	BridgeURL string `yaml:"bridge_url" json:"bridge_url"`
	// InstanceURL is the Pronote instance to log into.
	InstanceURL string `yaml:"instance_url" json:"instance_url"`
	Username    string `yaml:"username" json:"username"`
	Password    string `yaml:"password" json:"password"`
	// ENT names the academic SSO portal; empty for direct login.
	ENT string `yaml:"ent,omitempty" json:"ent,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the feed endpoints.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the feed server.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone lessons are displayed in (e.g. "Europe/Paris").
	Timezone string `yaml:"timezone" json:"timezone"`

	// DefaultWeeks is the number of forward weeks served when a request
	// carries no usable weeks parameter. Valid range is 1..26.
	DefaultWeeks int `yaml:"default_weeks" json:"default_weeks"`

	// CacheTTLSeconds is how long a fetched timetable window is reused
	// before the backend is queried again. Valid range is 60..900.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	// Pronote configures the upstream timetable backend.
	Pronote PronoteConfig `yaml:"pronote" json:"pronote"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen       = "127.0.0.1:8000"
	defaultTimezone     = "Europe/Paris"
	defaultWeeks        = 8
	defaultCacheTTLSecs = 120

	// MinWeeks / MaxWeeks bound the forward window a request may ask for.
	MinWeeks = 1
	MaxWeeks = 26

	minCacheTTLSecs = 60
	maxCacheTTLSecs = 900
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		Timezone:        defaultTimezone,
		DefaultWeeks:    defaultWeeks,
		CacheTTLSeconds: defaultCacheTTLSecs,
		Pronote:         PronoteConfig{},
		BasicAuth:       nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults and clamps
// out-of-range values so that partially-filled configs still behave
// correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.DefaultWeeks < MinWeeks || c.DefaultWeeks > MaxWeeks {
		c.DefaultWeeks = defaultWeeks
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = defaultCacheTTLSecs
	}
	if c.CacheTTLSeconds < minCacheTTLSecs {
		c.CacheTTLSeconds = minCacheTTLSecs
	}
	if c.CacheTTLSeconds > maxCacheTTLSecs {
		c.CacheTTLSeconds = maxCacheTTLSecs
	}
}

// ApplyEnv overrides Pronote settings from the environment. Credentials
// usually come from a .env file or the unit environment rather than the
// YAML config.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PRONOTE_BRIDGE_URL"); v != "" {
		c.Pronote.BridgeURL = v
	}
	if v := os.Getenv("PRONOTE_URL"); v != "" {
		c.Pronote.InstanceURL = v
	}
	if v := os.Getenv("PRONOTE_USERNAME"); v != "" {
		c.Pronote.Username = v
	}
	if v := os.Getenv("PRONOTE_PASSWORD"); v != "" {
		c.Pronote.Password = v
	}
	if v := os.Getenv("PRONOTE_ENT"); v != "" {
		c.Pronote.ENT = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".pronote-ics-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Credentials live in this file; keep it private to the owner.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
