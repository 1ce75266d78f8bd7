package config

import (
	"strings"
	"testing"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	SetConfig(nil)
	t.Cleanup(func() { SetConfig(nil) })
}

func TestLoad(t *testing.T) {
	resetGlobal(t)

	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8181"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if GetConfig() != cfg {
		t.Error("expected Load to publish the loaded config")
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8181" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:8181", cfg.Server.ListenAddress)
	}
}

func TestLoad_FailureKeepsGlobal(t *testing.T) {
	resetGlobal(t)

	before := Default()
	SetConfig(before)

	if _, err := Load(writeConfig(t, "history:\n  driver: postgres\n")); err == nil {
		t.Fatal("expected validation error")
	}
	if GetConfig() != before {
		t.Error("expected failed load to keep the existing configuration")
	}
}

func TestGetConfig_BeforeLoad(t *testing.T) {
	resetGlobal(t)

	if cfg := GetConfig(); cfg != nil {
		t.Errorf("expected nil config before loading, got %+v", cfg)
	}
}

func TestReloadConfig(t *testing.T) {
	resetGlobal(t)

	if _, err := Load(writeConfig(t, "telemetry:\n  logging:\n    level: info\n")); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	updated := writeConfig(t, "telemetry:\n  logging:\n    level: debug\n")
	if err := ReloadConfig(updated); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if got := GetConfig().Telemetry.Logging.Level; got != "debug" {
		t.Errorf("expected reloaded level %q, got %q", "debug", got)
	}
}

func TestReloadConfig_ValidationFailure(t *testing.T) {
	resetGlobal(t)

	if _, err := Load(writeConfig(t, "telemetry:\n  logging:\n    level: info\n")); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	before := GetConfig()

	broken := writeConfig(t, "telemetry:\n  logging:\n    level: loud\n")
	err := ReloadConfig(broken)
	if err == nil {
		t.Fatal("expected reload to fail")
	}
	if !strings.Contains(err.Error(), "failed to reload configuration") {
		t.Errorf("unexpected error %v", err)
	}
	if GetConfig() != before {
		t.Error("expected existing configuration to be kept after failed reload")
	}
}
