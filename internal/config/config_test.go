package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Host != DefaultHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, DefaultHost)
	}
	if cfg.Storage.Driver != DefaultStorageDriver {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DefaultStorageDriver)
	}
	if cfg.Navigation.MobileBreakpoint != DefaultMobileBreakpoint {
		t.Errorf("Navigation.MobileBreakpoint = %d, want %d", cfg.Navigation.MobileBreakpoint, DefaultMobileBreakpoint)
	}
	if cfg.Auth.FailureRate != 0.05 {
		t.Errorf("Auth.FailureRate = %v, want 0.05", cfg.Auth.FailureRate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	if !strings.Contains(err.Error(), "F302") {
		t.Errorf("Expected F302 error, got: %v", err)
	}

	configJSON := `{
  "server": {
    "port": 8080,
    "host": "0.0.0.0"
  },
  "storage": {
    "driver": "memory"
  },
  "auth": {
    "minLatency": "0",
    "maxLatency": "0",
    "failureRate": 0
  },
  "navigation": {
    "mobileBreakpoint": 768
  }
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Auth.FailureRate != 0 {
		t.Errorf("Auth.FailureRate = %v, want explicit 0", cfg.Auth.FailureRate)
	}
	lo, hi := cfg.Auth.Latency()
	if lo != 0 || hi != 0 {
		t.Errorf("Latency = (%v, %v), want zero", lo, hi)
	}
	if cfg.Navigation.MobileBreakpoint != 768 {
		t.Errorf("MobileBreakpoint = %d, want 768", cfg.Navigation.MobileBreakpoint)
	}
	// Untouched sections keep defaults.
	if cfg.Auth.DashboardPath != "/dashboard" {
		t.Errorf("DashboardPath = %q, want /dashboard", cfg.Auth.DashboardPath)
	}
	if cfg.Navigation.FocusDelay() != 100*time.Millisecond {
		t.Errorf("FocusDelay = %v, want 100ms", cfg.Navigation.FocusDelay())
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "F301") {
		t.Errorf("Expected F301 error, got: %v", err)
	}
}

func TestSave(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	cfg.Server.Port = 9000

	if err := cfg.Save(); err == nil {
		t.Error("Expected error when saving without path")
	}

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", loaded.Server.Port)
	}

	loaded.Auth.FailureRate = 0
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	reloaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Auth.FailureRate != 0 {
		t.Errorf("FailureRate = %v, want 0 to survive a round trip", reloaded.Auth.FailureRate)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative port", func(c *Config) { c.Server.Port = -1 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "etcd" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Driver = "s3" }},
		{"bad duration", func(c *Config) { c.Auth.MinLatency = "soon" }},
		{"negative duration", func(c *Config) { c.Auth.ResetLatency = "-1s" }},
		{"max below min", func(c *Config) { c.Auth.MinLatency = "2s"; c.Auth.MaxLatency = "1s" }},
		{"failure rate above one", func(c *Config) { c.Auth.FailureRate = 1.5 }},
		{"negative breakpoint", func(c *Config) { c.Navigation.MobileBreakpoint = -1 }},
		{"bad theme", func(c *Config) { c.Theme.Default = "sepia" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}

	t.Run("s3 with bucket", func(t *testing.T) {
		cfg := New()
		cfg.Storage.Driver = "s3"
		cfg.Storage.Bucket = "folio-state"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})
}

func TestAddress(t *testing.T) {
	cfg := New()
	cfg.Server.Port = 8080
	cfg.Server.Host = "0.0.0.0"

	if addr := cfg.Address(); addr != "0.0.0.0:8080" {
		t.Errorf("Address = %q, want %q", addr, "0.0.0.0:8080")
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := New()
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	} {
		cfg.LogLevel = level
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := New().SaveTo(filepath.Join(root, ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	found, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	want, _ := filepath.Abs(root)
	if found != want {
		t.Errorf("FindProjectRoot = %q, want %q", found, want)
	}

	if !Exists(root) {
		t.Error("Exists(root) should be true")
	}
	if Exists(nested) {
		t.Error("Exists(nested) should be false")
	}
}
