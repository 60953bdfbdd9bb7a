package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// clearEnv blanks every variable ApplyEnv reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DOADDOAD_ACCESS_TOKEN", "DOADDOAD_SERVER", "DOADDOAD_STATE_FILE",
		"DOADDOAD_GENERATOR", "DOADDOAD_LANG", "DOADDOAD_LOG_FILE",
		"DOADDOAD_TRIM", "DOADDOAD_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.StateFile != "doaddoad.db" {
		t.Errorf("StateFile = %q", cfg.StateFile)
	}
	if cfg.Generator.Path != "/usr/bin/dadadodo" {
		t.Errorf("Generator.Path = %q", cfg.Generator.Path)
	}
	if cfg.Trim != 5000 || cfg.MaxLength != 140 || cfg.TimelineCount != 20 {
		t.Errorf("unexpected limits: trim %d, max length %d, timeline %d", cfg.Trim, cfg.MaxLength, cfg.TimelineCount)
	}
	if cfg.Refresh != 2*time.Hour {
		t.Errorf("Refresh = %v", cfg.Refresh)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
state_file: /var/lib/doaddoad/state.db
generator:
  timeout: 5s
trim: 1000
lang: it
refresh: 30m
max_updates: 10
social:
  server: https://mastodon.example
feeds:
  - name: Example
    url: https://example.com/feed.xml
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Default()
	want.StateFile = "/var/lib/doaddoad/state.db"
	want.Generator.Timeout = 5 * time.Second
	want.Trim = 1000
	want.Language = "it"
	want.Refresh = 30 * time.Minute
	want.MaxUpdates = 10
	want.Social.Server = "https://mastodon.example"
	want.Feeds = []Feed{{Name: "Example", URL: "https://example.com/feed.xml"}}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "trim: [not a number")

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOADDOAD_ACCESS_TOKEN", "secret")
	t.Setenv("DOADDOAD_LANG", "de")
	t.Setenv("DOADDOAD_TRIM", "42")
	t.Setenv("DOADDOAD_DEBUG", "true")
	path := writeFile(t, "config.yaml", "lang: it\ntrim: 1000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Social.AccessToken != "secret" || cfg.Language != "de" || cfg.Trim != 42 || !cfg.Debug {
		t.Errorf("environment did not override: %+v", cfg)
	}
}

func TestEnvInvalidNumberIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOADDOAD_TRIM", "lots")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trim != 5000 {
		t.Errorf("expected default trim, got %d", cfg.Trim)
	}
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never replaces a variable that exists, even when empty.
	os.Unsetenv("DOADDOAD_SERVER")
	env := writeFile(t, ".env", "DOADDOAD_SERVER=https://from.dotenv\nDOADDOAD_LANG=fr\n")
	// Variables already in the environment win over the file.
	t.Setenv("DOADDOAD_LANG", "en")

	cfg, err := Load("", env, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Social.Server != "https://from.dotenv" {
		t.Errorf("Server = %q, want value from .env", cfg.Social.Server)
	}
	if cfg.Language != "en" {
		t.Errorf("Language = %q, want environment value", cfg.Language)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errSub string
	}{
		{"negative trim", func(c *Config) { c.Trim = -1 }, "trim"},
		{"zero max length", func(c *Config) { c.MaxLength = 0 }, "max length"},
		{"negative refresh", func(c *Config) { c.Refresh = -time.Second }, "refresh"},
		{"negative timeout", func(c *Config) { c.Generator.Timeout = -time.Second }, "timeout"},
		{"negative max updates", func(c *Config) { c.MaxUpdates = -3 }, "max updates"},
		{"token without server", func(c *Config) { c.Social.AccessToken = "x" }, "server"},
		{"feed without url", func(c *Config) { c.Feeds = []Feed{{Name: "x"}} }, "no url"},
		{"empty state file", func(c *Config) { c.StateFile = "" }, "state file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("error %q does not mention %q", err, tt.errSub)
			}
		})
	}
}

func TestHasSocial(t *testing.T) {
	cfg := Default()
	if cfg.HasSocial() {
		t.Error("default config should have no social account")
	}
	cfg.Social.Server = "https://mastodon.example"
	cfg.Social.AccessToken = "token"
	if !cfg.HasSocial() {
		t.Error("expected social account to be configured")
	}
}
