// Package config handles loading and saving reliefplan configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/reliefplan/config.yaml
//   - State:   ~/.local/state/reliefplan/ (geocode cache)
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "reliefplan"

// ServerConfig controls the HTTP listener and the API the CLI talks to.
type ServerConfig struct {
	Addr         string        `yaml:"addr,omitempty"`
	APIURL       string        `yaml:"api_url,omitempty"` // Server the CLI planning commands call
	ReadTimeout  time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"`
}

// GeoConfig controls geocoding and road routing.
type GeoConfig struct {
	NominatimURL    string        `yaml:"nominatim_url,omitempty"`
	OSRMURL         string        `yaml:"osrm_url,omitempty"`
	UserAgent       string        `yaml:"user_agent,omitempty"`
	CountryBias     string        `yaml:"country_bias,omitempty"`
	RequestTimeout  time.Duration `yaml:"request_timeout,omitempty"`
	GeocodeInterval time.Duration `yaml:"geocode_interval,omitempty"` // Pause between uncached lookups
	Concurrency     int           `yaml:"concurrency,omitempty"`      // Parallel route requests
}

// CacheConfig controls the geocode cache.
type CacheConfig struct {
	Enabled *bool         `yaml:"enabled,omitempty"`
	Path    string        `yaml:"path,omitempty"`
	TTL     time.Duration `yaml:"ttl,omitempty"` // 0 keeps entries forever
}

// RenderConfig holds graph canvas settings.
type RenderConfig struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// UIConfig holds form defaults.
type UIConfig struct {
	PlaceCount  int     `yaml:"place_count,omitempty"`
	ZoneCount   int     `yaml:"zone_count,omitempty"`
	ThresholdKm float64 `yaml:"threshold_km,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Server ServerConfig `yaml:"server,omitempty"`
	Geo    GeoConfig    `yaml:"geo,omitempty"`
	Cache  CacheConfig  `yaml:"cache,omitempty"`
	Render RenderConfig `yaml:"render,omitempty"`
	UI     UIConfig     `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			APIURL:       "http://127.0.0.1:8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 2 * time.Minute,
		},
		Geo: GeoConfig{
			NominatimURL:    "https://nominatim.openstreetmap.org",
			OSRMURL:         "https://router.project-osrm.org",
			UserAgent:       "reliefplan/1.0 (+https://github.com/vanderheijden86/reliefplan)",
			CountryBias:     "India",
			RequestTimeout:  15 * time.Second,
			GeocodeInterval: time.Second,
			Concurrency:     4,
		},
		Cache: CacheConfig{
			Path: filepath.Join(StateDir(), "geocache.sqlite3"),
		},
		Render: RenderConfig{
			Width:  650,
			Height: 480,
		},
		UI: UIConfig{
			PlaceCount:  5,
			ZoneCount:   4,
			ThresholdKm: 20,
		},
	}
}

// CacheEnabled reports whether the geocode cache should be used.
func (c Config) CacheEnabled() bool {
	if c.Cache.Enabled == nil {
		return c.Cache.Path != ""
	}
	return *c.Cache.Enabled && c.Cache.Path != ""
}

// Validate checks values that would otherwise fail deep inside a request.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	for name, raw := range map[string]string{
		"server.api_url":    c.Server.APIURL,
		"geo.nominatim_url": c.Geo.NominatimURL,
		"geo.osrm_url":      c.Geo.OSRMURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: invalid URL %q", name, raw)
		}
	}
	if c.Geo.Concurrency < 1 {
		return fmt.Errorf("geo.concurrency must be at least 1, got %d", c.Geo.Concurrency)
	}
	if c.Geo.GeocodeInterval < 0 {
		return fmt.Errorf("geo.geocode_interval must not be negative")
	}
	if c.Render.Width < 200 || c.Render.Height < 200 {
		return fmt.Errorf("render size %dx%d is too small", c.Render.Width, c.Render.Height)
	}
	return nil
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return applyEnv(DefaultConfig()), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Cache.Path = expandHome(cfg.Cache.Path)
	return applyEnv(cfg), nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// applyEnv lets RP_ADDR and RP_API_URL override the file.
func applyEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv("RP_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("RP_API_URL")); v != "" {
		cfg.Server.APIURL = v
	}
	return cfg
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
