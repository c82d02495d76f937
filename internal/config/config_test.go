package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ADMIN_IDS", "DEPARTMENTS", "DEPARTMENTS_FILE", "STORE_DRIVER", "SESSION_BACKEND", "NOTIFY_CHAT_ID", "HTTP_ENABLED", "HTTP_HOST", "AUTH_JWT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.Store.Driver)
	}
	if cfg.Session.Backend != "memory" {
		t.Fatalf("expected memory sessions, got %q", cfg.Session.Backend)
	}
	if cfg.Policy.BusinessStart != 9 || cfg.Policy.BusinessEnd != 18 {
		t.Fatalf("unexpected business hours: %d-%d", cfg.Policy.BusinessStart, cfg.Policy.BusinessEnd)
	}
	if len(cfg.Policy.Departments) != 6 {
		t.Fatalf("expected 6 default departments, got %d", len(cfg.Policy.Departments))
	}
	if len(cfg.Policy.AdminIDs) != 0 {
		t.Fatalf("expected empty allowlist, got %v", cfg.Policy.AdminIDs)
	}
	if cfg.App.HTTPEnabled {
		t.Fatalf("expected admin api disabled by default")
	}
	if cfg.App.Host != "127.0.0.1" {
		t.Fatalf("expected loopback host, got %q", cfg.App.Host)
	}
	if cfg.Auth.JWTSecret != "" {
		t.Fatalf("expected no default jwt secret")
	}
}

func TestLoadRequiresCredentialsWhenHTTPEnabled(t *testing.T) {
	t.Setenv("ADMIN_IDS", "")
	t.Setenv("DEPARTMENTS_FILE", "")
	t.Setenv("HTTP_ENABLED", "true")

	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("ADMIN_API_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without jwt secret")
	}

	t.Setenv("AUTH_JWT_SECRET", "a-long-random-secret")
	t.Setenv("ADMIN_API_KEY_HASH", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without api key hash")
	}

	t.Setenv("ADMIN_API_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.App.HTTPEnabled {
		t.Fatalf("expected admin api enabled")
	}
}

func TestLoadAdminIDsAndDepartments(t *testing.T) {
	t.Setenv("ADMIN_IDS", "717329852, 653756588")
	t.Setenv("DEPARTMENTS", "Central Districts Office; Coordination Office ;")
	t.Setenv("DEPARTMENTS_FILE", "")
	t.Setenv("NOTIFY_CHAT_ID", "-1002685248701")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Policy.IsAdmin(717329852) || !cfg.Policy.IsAdmin(653756588) {
		t.Fatalf("allowlist not parsed: %v", cfg.Policy.AdminIDs)
	}
	if cfg.Policy.IsAdmin(1) {
		t.Fatalf("unexpected admin")
	}
	if got := cfg.Policy.Departments; len(got) != 2 || got[1] != "Coordination Office" {
		t.Fatalf("unexpected departments: %#v", got)
	}
	if cfg.Notify.ChatID != -1002685248701 {
		t.Fatalf("unexpected notify chat id: %d", cfg.Notify.ChatID)
	}
}

func TestLoadRejectsBadAdminID(t *testing.T) {
	t.Setenv("ADMIN_IDS", "12,abc")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed ADMIN_IDS")
	}
}

func TestLoadDepartmentsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departments.yaml")
	content := "departments:\n  - Northern Districts Office\n  - \"  Southern Districts Office  \"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("ADMIN_IDS", "")
	t.Setenv("DEPARTMENTS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Policy.Departments) != 2 || cfg.Policy.Departments[1] != "Southern Districts Office" {
		t.Fatalf("unexpected departments: %#v", cfg.Policy.Departments)
	}
}

func TestValidateRejectsInvertedHours(t *testing.T) {
	cfg := &Config{
		Policy:  PolicyConfig{BusinessStart: 18, BusinessEnd: 9, Departments: []string{"x"}},
		Store:   StoreConfig{Driver: "sqlite"},
		Session: SessionConfig{Backend: "memory"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLocationFallsBackToLocal(t *testing.T) {
	loc, err := PolicyConfig{Timezone: "Local"}.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc == nil {
		t.Fatalf("nil location")
	}
	if _, err := (PolicyConfig{Timezone: "Not/AZone"}).Location(); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}
