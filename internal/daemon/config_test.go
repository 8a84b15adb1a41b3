package daemon

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want 127.0.0.1", cfg.API.Host)
	}
	if cfg.API.Port != 7341 {
		t.Errorf("API.Port = %d, want 7341", cfg.API.Port)
	}
	if cfg.Poller.Interval != "5s" {
		t.Errorf("Poller.Interval = %q, want 5s", cfg.Poller.Interval)
	}
	if cfg.Party.JoinWindow != "60s" {
		t.Errorf("Party.JoinWindow = %q, want 60s", cfg.Party.JoinWindow)
	}
	if cfg.Catalog.File != "" {
		t.Errorf("Catalog.File = %q, want builtin", cfg.Catalog.File)
	}
	if !cfg.Telemetry.Prometheus {
		t.Error("Prometheus should default on")
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("ROVER_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("Port = %d, want default", cfg.API.Port)
	}
}

func TestSaveLoadConfig_Roundtrip(t *testing.T) {
	t.Setenv("ROVER_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.Port = 9999
	cfg.Party.JoinWindow = "2m"
	cfg.Notify.WebhookURL = "https://example.com/hook"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if loaded.API.Port != 9999 {
		t.Errorf("Port = %d, want 9999", loaded.API.Port)
	}
	if loaded.Party.JoinWindow != "2m" {
		t.Errorf("JoinWindow = %q, want 2m", loaded.Party.JoinWindow)
	}
	if loaded.Notify.WebhookURL != "https://example.com/hook" {
		t.Errorf("WebhookURL = %q", loaded.Notify.WebhookURL)
	}
}

func TestRoverHome_EnvOverride(t *testing.T) {
	t.Setenv("ROVER_HOME", "/tmp/rover-test")
	if got := RoverHome(); got != "/tmp/rover-test" {
		t.Errorf("RoverHome() = %q, want env override", got)
	}
}

func TestParseDuration(t *testing.T) {
	if got := parseDuration("30s", time.Minute); got != 30*time.Second {
		t.Errorf("parseDuration(30s) = %v", got)
	}
	if got := parseDuration("", time.Minute); got != time.Minute {
		t.Errorf("empty string = %v, want fallback", got)
	}
	if got := parseDuration("bogus", time.Minute); got != time.Minute {
		t.Errorf("bogus string = %v, want fallback", got)
	}
}
