package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Errorf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Geo.GeocodeInterval != time.Second {
		t.Errorf("expected 1s geocode interval, got %v", cfg.Geo.GeocodeInterval)
	}
	if cfg.Render.Width != 650 || cfg.Render.Height != 480 {
		t.Errorf("expected 650x480 canvas, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.UI.ThresholdKm != 20 {
		t.Errorf("expected threshold 20, got %v", cfg.UI.ThresholdKm)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.UI.PlaceCount != 5 {
		t.Errorf("expected default config, got place count %d", cfg.UI.PlaceCount)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	t.Setenv("RP_ADDR", "")
	t.Setenv("RP_API_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  addr: 0.0.0.0:9090
geo:
  country_bias: Nepal
  geocode_interval: 250ms
  concurrency: 8
cache:
  enabled: false
  path: ~/relief/cache.sqlite3
ui:
  place_count: 7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:9090" {
		t.Errorf("expected addr override, got %q", cfg.Server.Addr)
	}
	if cfg.Geo.CountryBias != "Nepal" {
		t.Errorf("expected country bias Nepal, got %q", cfg.Geo.CountryBias)
	}
	if cfg.Geo.GeocodeInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms interval, got %v", cfg.Geo.GeocodeInterval)
	}
	if cfg.Geo.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", cfg.Geo.Concurrency)
	}
	// Untouched sections keep defaults
	if cfg.Geo.OSRMURL != DefaultConfig().Geo.OSRMURL {
		t.Errorf("expected default OSRM URL, got %q", cfg.Geo.OSRMURL)
	}
	if cfg.UI.PlaceCount != 7 || cfg.UI.ZoneCount != 4 {
		t.Errorf("unexpected ui config %+v", cfg.UI)
	}
	if cfg.CacheEnabled() {
		t.Error("cache should be disabled")
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "relief/cache.sqlite3"); cfg.Cache.Path != want {
		t.Errorf("expected expanded cache path %q, got %q", want, cfg.Cache.Path)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("RP_ADDR", ":7000")
	t.Setenv("RP_API_URL", "http://planner.internal:7000")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("expected env addr, got %q", cfg.Server.Addr)
	}
	if cfg.Server.APIURL != "http://planner.internal:7000" {
		t.Errorf("expected env api url, got %q", cfg.Server.APIURL)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("RP_ADDR", "")
	t.Setenv("RP_API_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Geo.UserAgent = "relief-test/0.1"
	cfg.Cache.TTL = 72 * time.Hour
	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Geo.UserAgent != "relief-test/0.1" {
		t.Errorf("user agent lost: %q", loaded.Geo.UserAgent)
	}
	if loaded.Cache.TTL != 72*time.Hour {
		t.Errorf("ttl lost: %v", loaded.Cache.TTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = " " }},
		{"bad api url", func(c *Config) { c.Server.APIURL = "not a url" }},
		{"bad osrm url", func(c *Config) { c.Geo.OSRMURL = "/relative" }},
		{"zero concurrency", func(c *Config) { c.Geo.Concurrency = 0 }},
		{"negative interval", func(c *Config) { c.Geo.GeocodeInterval = -time.Second }},
		{"tiny canvas", func(c *Config) { c.Render.Width = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	if got := ConfigPath(); got != "/tmp/xdg-config/reliefplan/config.yaml" {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := StateDir(); got != "/tmp/xdg-state/reliefplan" {
		t.Errorf("StateDir = %q", got)
	}
}

func TestLoad_UsesXDGConfigHome(t *testing.T) {
	t.Setenv("RP_ADDR", "")
	t.Setenv("RP_API_URL", "")
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load without a file: %v", err)
	}
	if cfg.UI.ZoneCount != DefaultConfig().UI.ZoneCount {
		t.Errorf("expected defaults, got zone count %d", cfg.UI.ZoneCount)
	}

	if err := os.MkdirAll(filepath.Join(home, "reliefplan"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(), []byte("ui:\n  zone_count: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UI.ZoneCount != 9 {
		t.Errorf("expected zone count 9 from %s, got %d", ConfigPath(), cfg.UI.ZoneCount)
	}
}
