package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != ModeOnce {
		t.Fatalf("expected default mode %q, got %q", ModeOnce, cfg.Mode)
	}
	if cfg.Source != "All" {
		t.Fatalf("expected default source All, got %q", cfg.Source)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("unexpected http timeout %v", cfg.HTTPTimeout)
	}
	if cfg.ScrapeWorkers != 4 {
		t.Fatalf("unexpected scrape workers %d", cfg.ScrapeWorkers)
	}
	if cfg.StorageType != "none" {
		t.Fatalf("unexpected storage type %q", cfg.StorageType)
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Load([]string{"--mode", "serve", "--category", "Science", "--source", "The Guardian", "--enrich=false"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != ModeServe || cfg.Category != "Science" || cfg.Source != "The Guardian" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Enrich {
		t.Fatalf("expected enrich disabled")
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	if _, err := Load([]string{"--mode", "daemon"}); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "0")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}

func TestLoadRefreshInterval(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL_SECONDS", "300")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RefreshInterval != 5*time.Minute {
		t.Fatalf("unexpected refresh interval %v", cfg.RefreshInterval)
	}

	t.Setenv("REFRESH_INTERVAL_SECONDS", "-1")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for negative refresh interval")
	}
}

func TestLoadPatchTTL(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PatchTTL != 12*time.Hour {
		t.Fatalf("unexpected default patch ttl %v", cfg.PatchTTL)
	}

	t.Setenv("PATCH_TTL_SECONDS", "0")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for zero patch ttl")
	}
}

func TestLoadLimit(t *testing.T) {
	cfg, err := Load([]string{"--limit", "20"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limit != 20 {
		t.Fatalf("limit flag not applied: %d", cfg.Limit)
	}

	for _, bad := range []string{"-1", "51"} {
		if _, err := Load([]string{"--limit=" + bad}); err == nil {
			t.Fatalf("expected error for limit %s", bad)
		}
	}
}

func TestLoadScrapeRetries(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScrapeRetries != 2 {
		t.Fatalf("unexpected default scrape retries %d", cfg.ScrapeRetries)
	}

	t.Setenv("SCRAPE_RETRIES", "-1")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for negative scrape retries")
	}
}
