package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("LOCATION_URL", "")
	t.Setenv("LOG_LEVEL", "")
	cfg := Load()
	if cfg.BackendURL == "" {
		t.Fatalf("expected default backend url")
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("expected default request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.LocationURL == "" {
		t.Fatalf("expected default location url")
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", cfg.LogLevel)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://localhost:9999")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	cfg := Load()
	if cfg.BackendURL != "http://localhost:9999" {
		t.Fatalf("backend url override lost: %q", cfg.BackendURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("timeout override lost: %s", cfg.RequestTimeout)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	cfg := Load()
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.RequestTimeout)
	}
}
