package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadWith error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.DeepLink.Host != "template.softteco.com.deep_link" || cfg.DeepLink.Scheme != "https" {
		t.Fatalf("unexpected deep link defaults: %+v", cfg.DeepLink)
	}
	if cfg.Geo.Timeout != 5*time.Second {
		t.Fatalf("expected 5s geo timeout, got %v", cfg.Geo.Timeout)
	}
	if cfg.Mail.Workers != 4 {
		t.Fatalf("expected 4 mail workers, got %d", cfg.Mail.Workers)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env by default")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                "production",
		"REDIS_PASSWORD":     "s3cret",
		"ARGON2_MEMORY_KIB":  "32768",
		"ARGON2_PARALLELISM": "2",
		"GEO_TIMEOUT":        "2s",
	}))
	if err != nil {
		t.Fatalf("LoadWith error: %v", err)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production env")
	}
	if cfg.Redis.Password != "s3cret" {
		t.Fatalf("unexpected redis password")
	}
	if cfg.Argon2.MemoryKiB != 32768 || cfg.Argon2.Parallelism != 2 {
		t.Fatalf("unexpected argon2 config: %+v", cfg.Argon2)
	}
	if cfg.Geo.Timeout != 2*time.Second {
		t.Fatalf("expected 2s, got %v", cfg.Geo.Timeout)
	}
}
