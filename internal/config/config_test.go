package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"garland/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected default model: %s", cfg.OpenAI.Model)
	}
	if cfg.Ingest.OnFetchError != "fail" {
		t.Fatalf("unexpected fetch error policy: %s", cfg.Ingest.OnFetchError)
	}
	if len(cfg.Feed.Products) != 1 || cfg.Feed.Products[0] != "3d-Christmas-Tree-Ornament" {
		t.Fatalf("unexpected default products: %v", cfg.Feed.Products)
	}
}

func TestLoadParsesFileAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`db_path = "` + filepath.Join(dir, "orders.db") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[feed]",
		`base_url = "https://orders.example.com/"`,
		`products = ["mug", "ornament"]`,
		"[ingest]",
		`on_fetch_error = "continue"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Feed.BaseURL != "https://orders.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Feed.BaseURL)
	}
	if len(cfg.Feed.Products) != 2 {
		t.Fatalf("unexpected products: %v", cfg.Feed.Products)
	}
	if cfg.Ingest.OnFetchError != "continue" {
		t.Fatalf("unexpected policy: %s", cfg.Ingest.OnFetchError)
	}
	if !filepath.IsAbs(cfg.Paths.DBPath) {
		t.Fatalf("expected absolute db path, got %s", cfg.Paths.DBPath)
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[ingest]\non_fetch_error = \"explode\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for bad on_fetch_error")
	}
}

func TestEnvironmentFillsCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SS_KEY", "ss-test")
	t.Setenv("ORDER_PRODUCTS", "snowflake, star ,")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("expected env key, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.ShipStation.APIKey != "ss-test" {
		t.Fatalf("expected env shipstation key, got %q", cfg.ShipStation.APIKey)
	}
	if len(cfg.Feed.Products) != 2 || cfg.Feed.Products[0] != "snowflake" || cfg.Feed.Products[1] != "star" {
		t.Fatalf("unexpected products from env: %v", cfg.Feed.Products)
	}
}
