package config

import (
	"strings"
	"testing"
)

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when optional variables are missing", func(t *testing.T) {
		t.Setenv("SCHEDULER_HTTP_PORT", "")
		t.Setenv("SCHEDULER_SQLITE_DSN", "")
		t.Setenv("SCHEDULER_API_KEYS", "secret:alice")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN == "" {
			t.Fatalf("expected default SQLite DSN")
		}
	})

	t.Run("errors when API keys are missing", func(t *testing.T) {
		t.Setenv("SCHEDULER_API_KEYS", "")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for missing SCHEDULER_API_KEYS")
		}
		if !strings.Contains(err.Error(), "SCHEDULER_API_KEYS") {
			t.Fatalf("expected error to name the missing variable, got %v", err)
		}
	})

	t.Run("rejects invalid port values", func(t *testing.T) {
		t.Setenv("SCHEDULER_HTTP_PORT", "not-a-port")
		t.Setenv("SCHEDULER_API_KEYS", "secret:alice")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid SCHEDULER_HTTP_PORT")
		}
	})

	t.Run("parses typed values", func(t *testing.T) {
		t.Setenv("SCHEDULER_HTTP_PORT", "9090")
		t.Setenv("SCHEDULER_SQLITE_DSN", "file:custom.db")
		t.Setenv("SCHEDULER_API_KEYS", "secret:alice,root-key:bob:admin")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:custom.db" {
			t.Fatalf("expected custom DSN, got %s", cfg.SQLiteDSN)
		}
		if got := cfg.APIKeys["secret"]; got.UserID != "alice" || got.IsAdmin {
			t.Fatalf("unexpected principal for secret: %+v", got)
		}
		if got := cfg.APIKeys["root-key"]; got.UserID != "bob" || !got.IsAdmin {
			t.Fatalf("unexpected principal for root-key: %+v", got)
		}
	})
}

func TestParseAPIKeys(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "single entry", value: "k1:alice"},
		{name: "admin entry", value: "k1:alice:admin"},
		{name: "multiple entries", value: "k1:alice,k2:bob:admin"},
		{name: "empty", value: "", wantErr: true},
		{name: "missing user", value: "k1:", wantErr: true},
		{name: "bad role", value: "k1:alice:owner", wantErr: true},
		{name: "duplicate key", value: "k1:alice,k1:bob", wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseAPIKeys(tc.value)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %q", tc.value)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("ParseAPIKeys(%q): %v", tc.value, err)
			}
		})
	}
}
