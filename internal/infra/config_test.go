package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("PROVIDER_CATALOG_PATH", "")
	t.Setenv("POLL_TIMEOUT_MULTIPLIER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.ProviderCatalogPath != "providers.toml" {
		t.Fatalf("ProviderCatalogPath = %q, want %q", cfg.ProviderCatalogPath, "providers.toml")
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("PollInterval = %v, want %v", cfg.PollInterval, 3*time.Second)
	}
	if cfg.TimeoutMultiplier != 1.5 {
		t.Fatalf("TimeoutMultiplier = %v, want %v", cfg.TimeoutMultiplier, 1.5)
	}
	if cfg.MaxAttempts != 0 {
		t.Fatalf("MaxAttempts = %d, want 0", cfg.MaxAttempts)
	}
	if cfg.HTTPShutdownTimeout != 15*time.Second {
		t.Fatalf("HTTPShutdownTimeout = %v, want %v", cfg.HTTPShutdownTimeout, 15*time.Second)
	}
}

func TestLoadConfigHonorsExplicitValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "1919")
	t.Setenv("PROVIDER_CATALOG_PATH", "/etc/mediagen/providers.toml")
	t.Setenv("POLL_INTERVAL_SECONDS", "10")
	t.Setenv("POLL_TIMEOUT_MULTIPLIER", "2.0")
	t.Setenv("MAX_ATTEMPTS", "4")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("DatabaseURL = %q, want %q", cfg.DatabaseURL, "postgres://example")
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("PollInterval = %v, want %v", cfg.PollInterval, 10*time.Second)
	}
	if cfg.TimeoutMultiplier != 2.0 {
		t.Fatalf("TimeoutMultiplier = %v, want %v", cfg.TimeoutMultiplier, 2.0)
	}
	if cfg.MaxAttempts != 4 {
		t.Fatalf("MaxAttempts = %d, want 4", cfg.MaxAttempts)
	}
}

func TestLoadConfigRejectsLowMultiplier(t *testing.T) {
	t.Setenv("POLL_TIMEOUT_MULTIPLIER", "0.5")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig should reject a timeout multiplier at or below 1")
	}
}
