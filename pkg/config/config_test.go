package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/controlgraph/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := writeConfig(t, `
catalog = "frameworks.toml"

[view]
damping = 0.2
frame_interval = "50ms"
deselect_on_miss = false

[server]
addr = ":9090"
allowed_origins = ["http://localhost:3000"]

[cache]
backend = "none"

[compliance]
seed = 7
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Catalog != "frameworks.toml" {
		t.Errorf("Catalog = %q", cfg.Catalog)
	}
	if cfg.View.Damping != 0.2 {
		t.Errorf("View.Damping = %v, want 0.2", cfg.View.Damping)
	}
	if cfg.View.FrameInterval != 50*time.Millisecond {
		t.Errorf("View.FrameInterval = %v, want 50ms", cfg.View.FrameInterval)
	}
	if cfg.View.DeselectOnMiss {
		t.Error("View.DeselectOnMiss = true, want false")
	}
	// Unset keys keep their defaults.
	if cfg.View.Epsilon != Default().View.Epsilon {
		t.Errorf("View.Epsilon = %v, want default", cfg.View.Epsilon)
	}
	if cfg.Server.Addr != ":9090" || len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Cache.Backend != BackendNone || cfg.Compliance.Seed != 7 {
		t.Errorf("Cache.Backend = %q, Seed = %d", cfg.Cache.Backend, cfg.Compliance.Seed)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := Load(""); err != nil {
		t.Errorf("Load(\"\") without a config file = %v, want defaults", err)
	}

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"syntax", "[view\ndamping = 1", "decode"},
		{"unknown key", "[view]\nspeed = 3", "unknown key view.speed"},
		{"damping too large", "[view]\ndamping = 2", "view.damping must be at most 1"},
		{"zero epsilon", "[view]\nepsilon = 0", "view.epsilon must be greater than 0"},
		{"bad backend", "[cache]\nbackend = \"s3\"", "cache.backend must be one of"},
		{"redis without addr", "[cache]\nbackend = \"redis\"", "cache.redisaddr is required"},
		{"zero burst", "[server]\nburst = 0", "server.burst must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Load() = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CONTROLGRAPH_SERVER_ADDR", "0.0.0.0:7000")
	t.Setenv("CONTROLGRAPH_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("CONTROLGRAPH_CACHE_BACKEND", "redis")
	t.Setenv("CONTROLGRAPH_REDIS_ADDR", "localhost:6379")
	t.Setenv("CONTROLGRAPH_SEED", "99")
	t.Setenv("CONTROLGRAPH_SESSION_TTL", "2m")

	cfg, err := Load(writeConfig(t, "[server]\naddr = \":1\"\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:7000" {
		t.Errorf("Server.Addr = %q, env should win over file", cfg.Server.Addr)
	}
	if got := cfg.Server.AllowedOrigins; len(got) != 2 || got[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %q", got)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Compliance.Seed != 99 {
		t.Errorf("Seed = %d, want 99", cfg.Compliance.Seed)
	}
	if cfg.Server.SessionTTL != 2*time.Minute {
		t.Errorf("SessionTTL = %v, want 2m", cfg.Server.SessionTTL)
	}
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CONTROLGRAPH_SEED", "minus one")

	_, err := Load("")
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("Load() = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
	if !strings.Contains(err.Error(), "CONTROLGRAPH_SEED") {
		t.Errorf("error %q does not name the variable", err)
	}
}

func TestViewOptions(t *testing.T) {
	v := Default().View
	p := v.Params()
	if p.Damping != v.Damping || p.Epsilon != v.Epsilon {
		t.Errorf("Params() = %+v", p)
	}
	if got := len(v.Options()); got != 3 {
		t.Errorf("Options() = %d options, want 3", got)
	}
}
