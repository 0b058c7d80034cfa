package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "5175" {
		t.Fatalf("expected default port 5175, got %q", cfg.Port)
	}
	if cfg.BuildRule != "legacy" {
		t.Fatalf("expected legacy build rule, got %q", cfg.BuildRule)
	}
	if cfg.GenerateTimeout != 5*time.Second {
		t.Fatalf("expected 5s generate timeout, got %v", cfg.GenerateTimeout)
	}
	if !cfg.AllowUnattributed {
		t.Fatal("expected unattributed words to be allowed by default")
	}
	if cfg.SessionCacheSize != 1024 || cfg.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("unexpected session cache defaults %d %v", cfg.SessionCacheSize, cfg.SessionIdleTTL)
	}
	if cfg.Addr() != ":5175" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BUILD_RULE", " Strict ")
	t.Setenv("WORDS_AUTHORS", "webster, oxford")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.BuildRule != "strict" || !cfg.Production() {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if diff := cmp.Diff([]string{"webster", "oxford"}, cfg.Authors); diff != "" {
		t.Fatalf("authors mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DAILY_SALT=from_file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("DAILY_SALT") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DailySalt != "from_file" {
		t.Fatalf("expected salt from .env, got %q", cfg.DailySalt)
	}
}

func TestLoadRejectsUnknownBuildRule(t *testing.T) {
	t.Setenv("BUILD_RULE", "fuzzy")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if !errors.Is(err, ErrInvalidBuildRule) {
		t.Fatalf("expected ErrInvalidBuildRule, got %v", err)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("JWT_EXPIRES_DAYS", "not-an-int")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
