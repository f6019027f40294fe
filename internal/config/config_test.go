package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RateLimitMax != 100 {
		t.Errorf("RateLimitMax = %d, want 100", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow != 60*time.Second {
		t.Errorf("RateLimitWindow = %v, want 60s", cfg.RateLimitWindow)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v, want 24h", cfg.CacheTTL)
	}
	if cfg.AnnotationTTL != 7*24*time.Hour {
		t.Errorf("AnnotationTTL = %v, want 168h", cfg.AnnotationTTL)
	}
	if cfg.MetadataMaxBytes != 1<<20 {
		t.Errorf("MetadataMaxBytes = %d, want 1MiB", cfg.MetadataMaxBytes)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://sho.rt/")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "5")
	t.Setenv("CACHE_TTL_HOURS", "2")
	t.Setenv("METADATA_FETCH_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "https://sho.rt" {
		t.Errorf("BaseURL = %q, want trailing slash stripped", cfg.BaseURL)
	}
	if cfg.RateLimitMax != 5 {
		t.Errorf("RateLimitMax = %d, want 5", cfg.RateLimitMax)
	}
	if cfg.CacheTTL != 2*time.Hour {
		t.Errorf("CacheTTL = %v, want 2h", cfg.CacheTTL)
	}
	if cfg.MetadataTimeout != 3*time.Second {
		t.Errorf("MetadataTimeout = %v, want 3s", cfg.MetadataTimeout)
	}
}

func TestLoad_RejectsNonPositiveWindow(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero window")
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RateLimitMax != 100 {
		t.Errorf("RateLimitMax = %d, want default 100", cfg.RateLimitMax)
	}
}
