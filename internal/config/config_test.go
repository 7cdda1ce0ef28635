package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "data" {
		t.Fatalf("expected data dir %q, got %q", "data", cfg.DataDir)
	}
	if cfg.SaveDB != "overlay.db" {
		t.Fatalf("expected save db %q, got %q", "overlay.db", cfg.SaveDB)
	}
	if !cfg.Reclaim {
		t.Fatal("expected reclaim on by default")
	}
	if cfg.Tick != 16*time.Millisecond {
		t.Fatalf("expected 16ms tick, got %s", cfg.Tick)
	}
	level, err := cfg.Level()
	if err != nil || level != slog.LevelInfo {
		t.Fatalf("expected info level, got %v (%v)", level, err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OVERLAY_DATA_DIR", "/srv/content")
	t.Setenv("OVERLAY_RECLAIM", "false")
	t.Setenv("OVERLAY_TICK", "50ms")
	t.Setenv("OVERLAY_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/content" {
		t.Fatalf("expected env data dir, got %q", cfg.DataDir)
	}
	if cfg.Reclaim {
		t.Fatal("expected reclaim off")
	}
	if cfg.Tick != 50*time.Millisecond {
		t.Fatalf("expected 50ms tick, got %s", cfg.Tick)
	}
	if level, _ := cfg.Level(); level != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", level)
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OVERLAY_SAVE_DB=/tmp/slots.db\n"), 0o644); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	// godotenv sets the variable in the process; register it with t.Setenv
	// first so it is restored after the test.
	t.Setenv("OVERLAY_SAVE_DB", "")
	os.Unsetenv("OVERLAY_SAVE_DB")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SaveDB != "/tmp/slots.db" {
		t.Fatalf("expected dotenv save db, got %q", cfg.SaveDB)
	}
}

func TestLoadMissingDotenvIsIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	for name, env := range map[string][2]string{
		"bad tick":    {"OVERLAY_TICK", "soon"},
		"zero tick":   {"OVERLAY_TICK", "0s"},
		"bad level":   {"OVERLAY_LOG_LEVEL", "chatty"},
		"bad reclaim": {"OVERLAY_RECLAIM", "maybe"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			if _, err := Load(""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg Config
	t.Setenv("OVERLAY_TICK", "not-a-duration")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
