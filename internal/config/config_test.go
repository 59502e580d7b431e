// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, env overrides, validation, and scheme handling

package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIURL != "http://127.0.0.1:8000" {
		t.Errorf("APIURL = %q, want the default", cfg.APIURL)
	}
	if cfg.RequestTimeout != 15 {
		t.Errorf("RequestTimeout = %d, want 15", cfg.RequestTimeout)
	}
	if cfg.PollInterval != 30 {
		t.Errorf("PollInterval = %d, want 30", cfg.PollInterval)
	}
	if cfg.EventsCacheTTL != 30 {
		t.Errorf("EventsCacheTTL = %d, want 30", cfg.EventsCacheTTL)
	}
	if cfg.CredentialsPath == "" {
		t.Error("CredentialsPath should default to a concrete path")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("UNIMEET_API_URL", "https://unimeet.example.edu")
	t.Setenv("UNIMEET_REQUEST_TIMEOUT", "60")
	t.Setenv("UNIMEET_POLL_INTERVAL", "10")
	t.Setenv("UNIMEET_CREDENTIALS_PATH", "/tmp/creds.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIURL != "https://unimeet.example.edu" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 60 {
		t.Errorf("RequestTimeout = %d, want 60", cfg.RequestTimeout)
	}
	if cfg.PollInterval != 10 {
		t.Errorf("PollInterval = %d, want 10", cfg.PollInterval)
	}
	if cfg.CredentialsPath != "/tmp/creds.json" {
		t.Errorf("CredentialsPath = %q", cfg.CredentialsPath)
	}
}

func TestLoad_AddsSchemeWhenMissing(t *testing.T) {
	t.Setenv("UNIMEET_API_URL", "localhost:8000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("APIURL = %q, want http:// prefix added", cfg.APIURL)
	}
}

func TestLoad_RejectsTimeoutOutOfRange(t *testing.T) {
	t.Setenv("UNIMEET_REQUEST_TIMEOUT", "0")

	if _, err := Load(); err == nil {
		t.Error("Load should reject a zero timeout")
	} else if !strings.Contains(err.Error(), "UNIMEET_REQUEST_TIMEOUT") {
		t.Errorf("error = %v, want it to name the variable", err)
	}
}

func TestLoad_RejectsPollIntervalOutOfRange(t *testing.T) {
	t.Setenv("UNIMEET_POLL_INTERVAL", "100000")

	if _, err := Load(); err == nil {
		t.Error("Load should reject an excessive poll interval")
	}
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("UNIMEET_POLL_INTERVAL", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PollInterval != 30 {
		t.Errorf("PollInterval = %d, want the default 30", cfg.PollInterval)
	}
}

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"localhost:8000", "http://localhost:8000"},
		{"http://localhost:8000", "http://localhost:8000"},
		{"https://api.example.edu", "https://api.example.edu"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ensureScheme(tt.in); got != tt.want {
			t.Errorf("ensureScheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
