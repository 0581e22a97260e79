package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Sources.Feeds) != 6 {
		t.Errorf("expected 6 feeds, got %d", len(cfg.Sources.Feeds))
	}
	if len(cfg.Sources.Subreddits) != 4 {
		t.Errorf("expected 4 subreddits, got %d", len(cfg.Sources.Subreddits))
	}
	if len(cfg.Categories) != 5 {
		t.Errorf("expected 5 categories, got %d", len(cfg.Categories))
	}

	if cfg.Crawl.RedditLimit != 25 {
		t.Errorf("expected reddit_limit 25, got %d", cfg.Crawl.RedditLimit)
	}
	if cfg.Crawl.DefaultCategory != "cross-platform" {
		t.Errorf("expected default category 'cross-platform', got %q", cfg.Crawl.DefaultCategory)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
crawl:
  reddit_limit: 10
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Crawl.RedditLimit != 10 {
		t.Errorf("expected reddit_limit 10, got %d", cfg.Crawl.RedditLimit)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Crawl.DefaultCategory != "cross-platform" {
		t.Errorf("expected default category, got %q", cfg.Crawl.DefaultCategory)
	}
	if cfg.Schedule.Feeds != "0 */6 * * *" {
		t.Errorf("expected default feed schedule, got %q", cfg.Schedule.Feeds)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Sources.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestFindCategory(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	android := cfg.FindCategory("android")
	if android == nil {
		t.Fatal("expected android category")
	}
	if android.Name != "Android" {
		t.Errorf("expected name 'Android', got %q", android.Name)
	}
	if len(android.Keywords) == 0 {
		t.Error("expected android keywords to be populated")
	}

	if cfg.FindCategory("nope") != nil {
		t.Error("expected nil for unknown slug")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
