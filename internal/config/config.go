package config

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AdminHash is the SHA-256 of the default dashboard password
const AdminHash = "8c6976e5b5410415bde908bd4dee15dfb167a9c873fc4bb8a81f6f2ab448a918"

// Config is the top-level configuration for matchwatch.
type Config struct {
	Endpoint  Endpoint  `yaml:"endpoint"`
	Watchlist Watchlist `yaml:"watchlist"`
	Query     Query     `yaml:"query"`
	Dashboard Dashboard `yaml:"dashboard"`
	Logging   Logging   `yaml:"logging"`
	Auth      Auth      `yaml:"auth"`
}

// Endpoint locates the spreadsheet web app.
type Endpoint struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Watchlist holds defaults and the retry policy for watchlist writes.
type Watchlist struct {
	DefaultPriority int           `yaml:"default_priority"`
	RetryAttempts   int           `yaml:"retry_attempts"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay"`
}

// Query configures list views.
type Query struct {
	PageSize int `yaml:"page_size"`
}

// Dashboard configures the terminal dashboard.
type Dashboard struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Debounce        time.Duration `yaml:"debounce"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Auth holds the dashboard password hash.
type Auth struct {
	PasswordHash string `yaml:"password_hash"`
}

// Check reports whether password hashes to PasswordHash
func (a Auth) Check(password string) bool {
	sum := sha256.Sum256([]byte(password))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(a.PasswordHash))) == 1
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Endpoint: Endpoint{
			Timeout: 30 * time.Second,
		},
		Watchlist: Watchlist{
			DefaultPriority: 2,
			RetryAttempts:   3,
			RetryBaseDelay:  300 * time.Millisecond,
		},
		Query: Query{
			PageSize: 30,
		},
		Dashboard: Dashboard{
			RefreshInterval: 60 * time.Second,
			Debounce:        250 * time.Millisecond,
		},
		Logging: Logging{
			Level: "info",
			File:  filepath.Join(Dir(), "matchwatch.log"),
		},
		Auth: Auth{
			PasswordHash: AdminHash,
		},
	}
}

// Dir returns the per-user data directory, ~/.matchwatch
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".matchwatch"
	}
	return filepath.Join(home, ".matchwatch")
}

// DefaultPath returns the config file used when --config is not given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the YAML configuration file at path over the defaults and then
// applies environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. An empty endpoint URL is allowed here and
// rejected by the commands that need it.
func (c *Config) Validate() error {
	if c.Watchlist.DefaultPriority < 1 || c.Watchlist.DefaultPriority > 3 {
		return fmt.Errorf("watchlist.default_priority must be 1..3, got %d", c.Watchlist.DefaultPriority)
	}
	if c.Watchlist.RetryAttempts < 1 {
		return fmt.Errorf("watchlist.retry_attempts must be at least 1, got %d", c.Watchlist.RetryAttempts)
	}
	if c.Query.PageSize < 1 {
		return fmt.Errorf("query.page_size must be positive, got %d", c.Query.PageSize)
	}
	if c.Dashboard.RefreshInterval < time.Second {
		return fmt.Errorf("dashboard.refresh_interval must be at least 1s, got %s", c.Dashboard.RefreshInterval)
	}
	return nil
}

// Save writes c to path as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MATCHWATCH_ENDPOINT_URL"); v != "" {
		cfg.Endpoint.URL = v
	}
	if v := os.Getenv("MATCHWATCH_API_KEY"); v != "" {
		cfg.Endpoint.APIKey = v
	}
	if v := os.Getenv("MATCHWATCH_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
