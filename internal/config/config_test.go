package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func withSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("DOCENT_SECRET_ID", "test-id")
	t.Setenv("DOCENT_SECRET_KEY", "test-key")
}

func TestLoad_Defaults(t *testing.T) {
	withSecrets(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 2123 {
		t.Errorf("Port = %d, want 2123", cfg.Server.Port)
	}
	if cfg.Answer.TopK != 8 || cfg.Answer.MaxSpeechSeconds != 30 || cfg.Answer.FAQThreshold != 0.7 {
		t.Errorf("answer defaults wrong: %+v", cfg.Answer)
	}
	if cfg.Task.PollInterval.Std() != 1500*time.Millisecond || cfg.Task.Timeout.Std() != time.Minute {
		t.Errorf("task defaults wrong: %+v", cfg.Task)
	}
	if cfg.Answer.CatalogMaxAge.Std() != 0 {
		t.Errorf("catalog should default to always-fresh, got %v", cfg.Answer.CatalogMaxAge)
	}
}

func TestLoad_File(t *testing.T) {
	withSecrets(t)
	path := writeConfig(t, `
server:
  port: 9000
answer:
  top_k: 3
  catalog_max_age: 5m
  preamble: "这是一场艺术展。"
task:
  poll_interval: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Answer.TopK != 3 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Answer.CatalogMaxAge.Std() != 5*time.Minute {
		t.Errorf("CatalogMaxAge = %v, want 5m", cfg.Answer.CatalogMaxAge)
	}
	if cfg.Task.PollInterval.Std() != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.Task.PollInterval)
	}
	if cfg.Answer.Preamble == "" {
		t.Error("preamble not loaded")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	withSecrets(t)
	t.Setenv("DOCENT_PORT", "7777")
	t.Setenv("DOCENT_REGION", "ap-shanghai")
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("env override lost: port = %d", cfg.Server.Port)
	}
	if cfg.Provider.Region != "ap-shanghai" {
		t.Errorf("Region = %q", cfg.Provider.Region)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("DOCENT_SECRET_ID", "")
	t.Setenv("DOCENT_SECRET_KEY", "")

	if _, err := Load(""); err == nil {
		t.Error("Load without credentials should fail")
	}
}

func TestLoad_BadFile(t *testing.T) {
	withSecrets(t)
	path := writeConfig(t, "server: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("Load of invalid YAML should fail")
	}
}
