package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen      = "127.0.0.1:8080"
	DefaultRefreshCron = "0 * * * *"
	DefaultMaxDistance = 10.0
	DefaultBaseURL     = "https://fireworks-tonight.au/api/v1/"
	DefaultTimeout     = 10 * time.Second
)

// APIConfig describes how to reach the upstream fireworks service.
type APIConfig struct {
	// BaseURL is the versioned API root, e.g. "https://fireworks-tonight.au/api/v1/".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Timeout bounds every single upstream request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// UserAgent is sent on every request if non-empty.
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone upstream dates and times are read in.
	// Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule string used for periodic refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Postcode is the 4-digit postcode events are looked up for.
	Postcode string `yaml:"postcode" json:"postcode"`

	// Latitude / Longitude of home; distances are measured from here.
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`

	// MaxDistance is the search radius in kilometres.
	MaxDistance float64 `yaml:"max_distance" json:"max_distance"`

	API APIConfig `yaml:"api" json:"api"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      DefaultListen,
		LogLevel:    "info",
		RefreshCron: DefaultRefreshCron,
		MaxDistance: DefaultMaxDistance,
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	if c.MaxDistance <= 0 {
		c.MaxDistance = DefaultMaxDistance
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = DefaultTimeout
	}
}

// Validate checks the values a user has to provide. It is run after
// Normalize, so defaults never fail validation.
func (c *Config) Validate() error {
	if !validPostcode(c.Postcode) {
		return fmt.Errorf("invalid postcode %q: must be exactly 4 digits", c.Postcode)
	}
	if c.MaxDistance <= 0 {
		return fmt.Errorf("max_distance must be positive, got %g", c.MaxDistance)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %g out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %g out of range [-180, 180]", c.Longitude)
	}
	return nil
}

func validPostcode(p string) bool {
	if len(p) != 4 {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}
	return true
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
//
// Load does not validate; callers apply CLI overrides first and then call
// Validate.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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

// Save writes the given configuration to path atomically (temp file +
// rename) with 0600 permissions, creating the parent directory (0700).
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

	tmp, err := os.CreateTemp(dir, ".fwtonight-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
