package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledgerview/internal/accounts"
	"github.com/cleared-dev/ledgerview/internal/dashboard"
)

// FileName is the default config file name.
const FileName = "ledgerview.yaml"

// Environment variables that override the file.
const (
	EnvBaseURL    = "LEDGERVIEW_BASE_URL"
	EnvOfflineDir = "LEDGERVIEW_OFFLINE_DIR"
	EnvHTTPAddr   = "LEDGERVIEW_HTTP_ADDR"
)

// Config represents the top-level ledgerview.yaml configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Poll    PollConfig    `yaml:"poll"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Offline OfflineConfig `yaml:"offline"`
	HTTP    HTTPConfig    `yaml:"http"`
}

// ServerConfig locates the dashboard extension.
type ServerConfig struct {
	BaseURL       string        `yaml:"base_url"`
	ExtensionPath string        `yaml:"extension_path"`
	Timeout       time.Duration `yaml:"timeout"`
}

// PollConfig controls how often the requested range is checked.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LedgerConfig controls which accounts are tracked and how rows are built.
type LedgerConfig struct {
	ExtendDays      int      `yaml:"extend_days"`
	TrackedPrefixes []string `yaml:"tracked_prefixes"`
	ShortNameStrip  []string `yaml:"short_name_strip"`
}

// OfflineConfig points at a local data directory. When Dir is set it is
// used instead of the dashboard server.
type OfflineConfig struct {
	Dir string `yaml:"dir"`
}

// HTTPConfig controls the local API server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads a ledgerview.yaml file from disk. Fields missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config pointing at a local dashboard server.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:       "http://127.0.0.1:5000",
			ExtensionPath: dashboard.DefaultExtensionPath,
			Timeout:       10 * time.Second,
		},
		Poll: PollConfig{
			Interval: 500 * time.Millisecond,
		},
		Ledger: LedgerConfig{
			ExtendDays:      31,
			TrackedPrefixes: append([]string(nil), accounts.DefaultPrefixes...),
			ShortNameStrip:  append([]string(nil), accounts.DefaultStrip...),
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8090",
		},
	}
}

// ApplyEnv overrides cfg from the environment, after loading envPath (or
// .env in the working directory when envPath is empty and the file
// exists).
func ApplyEnv(cfg *Config, envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv(EnvOfflineDir); v != "" {
		cfg.Offline.Dir = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		cfg.HTTP.Addr = v
	}
	return nil
}

// Validate checks the values a session cannot run without.
func (c *Config) Validate() error {
	if c.Offline.Dir == "" && c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url or offline.dir is required")
	}
	if c.Ledger.ExtendDays < 0 {
		return fmt.Errorf("ledger.extend_days must not be negative, got %d", c.Ledger.ExtendDays)
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("poll.interval must not be negative, got %s", c.Poll.Interval)
	}
	return nil
}
