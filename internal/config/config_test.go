package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Portal.BaseURL != "https://suumo.jp" {
		t.Errorf("base url: got %q", cfg.Portal.BaseURL)
	}
	if cfg.Fetcher.Mode != "http" {
		t.Errorf("fetcher mode: got %q, want http", cfg.Fetcher.Mode)
	}
	if cfg.Fetcher.MaxRetries != 0 {
		t.Errorf("max retries: got %d, want 0", cfg.Fetcher.MaxRetries)
	}
}

func TestLoadConfigYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checker.yaml")
	data := []byte(`
portal:
  company_name: テスト不動産
  prefecture: kanagawa
fetcher:
  mode: collector
  request_delay_seconds: 5
report:
  output_path: out/report.csv
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Portal.CompanyName != "テスト不動産" {
		t.Errorf("company: got %q", cfg.Portal.CompanyName)
	}
	if cfg.Portal.Prefecture != "kanagawa" {
		t.Errorf("prefecture: got %q", cfg.Portal.Prefecture)
	}
	// untouched keys keep their defaults
	if cfg.Portal.BaseURL != "https://suumo.jp" {
		t.Errorf("base url: got %q", cfg.Portal.BaseURL)
	}
	if cfg.Fetcher.Mode != "collector" {
		t.Errorf("mode: got %q", cfg.Fetcher.Mode)
	}
	if got := cfg.Fetcher.GetRequestDelay().Seconds(); got != 5 {
		t.Errorf("request delay: got %vs, want 5s", got)
	}
	if cfg.Report.OutputPath != "out/report.csv" {
		t.Errorf("output path: got %q", cfg.Report.OutputPath)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("COMPANY_NAME", "株式会社サンプル")
	t.Setenv("PORT", "9000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Portal.CompanyName != "株式会社サンプル" {
		t.Errorf("company: got %q", cfg.Portal.CompanyName)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port: got %q", cfg.Server.Port)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fetcher.Mode = "selenium"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown fetcher mode")
	}
}
