package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("RunMode = %q, want longpoll", cfg.Telegram.RunMode)
	}
	if cfg.Shop.File != "shop.json" {
		t.Errorf("Shop.File = %q, want shop.json", cfg.Shop.File)
	}
	if cfg.Shop.PageSize != 25 {
		t.Errorf("Shop.PageSize = %d, want 25", cfg.Shop.PageSize)
	}
	if cfg.Shop.PromptTimeoutSeconds != 120 {
		t.Errorf("Shop.PromptTimeoutSeconds = %d, want 120", cfg.Shop.PromptTimeoutSeconds)
	}
	if cfg.Health.Listen != ":8080" {
		t.Errorf("Health.Listen = %q, want :8080", cfg.Health.Listen)
	}
	// backup defaults only apply when a schedule is set
	if cfg.Shop.Backup.Dir != "" || cfg.Shop.Backup.Retain != 0 {
		t.Errorf("backup defaults applied without cron: %+v", cfg.Shop.Backup)
	}
}

func TestNormalizeBackupDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Shop.Backup.Cron = "0 3 * * *"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Shop.Backup.Dir != "backups" {
		t.Errorf("Backup.Dir = %q, want backups", cfg.Shop.Backup.Dir)
	}
	if cfg.Shop.Backup.Retain != 14 {
		t.Errorf("Backup.Retain = %d, want 14", cfg.Shop.Backup.Retain)
	}
}

func TestNormalizeRejectsMissingToken(t *testing.T) {
	if err := Normalize(&Config{}); err == nil {
		t.Fatal("Normalize accepted an empty token")
	}
}

func TestNormalizeRunModes(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Errorf("polling alias not normalized: %q", cfg.Telegram.RunMode)
	}

	cfg = validConfig()
	cfg.Telegram.RunMode = "carrier-pigeon"
	if err := Normalize(cfg); err == nil {
		t.Fatal("Normalize accepted an invalid run mode")
	}

	cfg = validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil || !strings.Contains(err.Error(), "webhook.url") {
		t.Fatalf("webhook mode without url: err = %v", err)
	}
}

func TestNormalizeRejectsBadExclusion(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"Callback", "carrier-pigeon"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("Normalize accepted an unknown exclude_updates value")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
telegram:
  token: "123:abc"
shop:
  page_size: 10
  operators: [42, 77]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Shop.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.Shop.PageSize)
	}
	if len(cfg.Shop.Operators) != 2 || cfg.Shop.Operators[0] != 42 {
		t.Errorf("Operators = %v", cfg.Shop.Operators)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load accepted a missing file")
	}
}
