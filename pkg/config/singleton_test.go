package config

import (
	"path/filepath"
	"testing"
)

func TestSetConfigAndGetConfig(t *testing.T) {
	original := GetConfig()
	t.Cleanup(func() { SetConfig(original) })

	cfg := NewDefaultConfig()
	cfg.Server.Name = "test-server"
	SetConfig(cfg)

	if got := GetConfig(); got == nil || got.Server.Name != "test-server" {
		t.Errorf("expected stored config, got %+v", got)
	}
}

func TestReloadConfig(t *testing.T) {
	original := GetConfig()
	t.Cleanup(func() { SetConfig(original) })

	SetConfig(NewDefaultConfig())

	path := writeConfig(t, "server:\n  name: \"reloaded\"\n")
	if err := ReloadConfig(path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if GetConfig().Server.Name != "reloaded" {
		t.Errorf("expected reloaded name, got %q", GetConfig().Server.Name)
	}

	bad := writeConfig(t, "server:\n  transport: \"carrier-pigeon\"\n")
	if err := ReloadConfig(bad); err == nil {
		t.Fatal("expected reload error")
	}
	if GetConfig().Server.Name != "reloaded" {
		t.Error("failed reload must keep the previous config")
	}
}

func TestReloadConfig_MissingFileFallsBackToDefaults(t *testing.T) {
	original := GetConfig()
	t.Cleanup(func() { SetConfig(original) })

	if err := ReloadConfig(filepath.Join(t.TempDir(), "none.yaml")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if GetConfig().Server.Name != DefaultServerName {
		t.Errorf("expected default name, got %q", GetConfig().Server.Name)
	}
}
