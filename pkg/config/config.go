// Package config loads controlgraph settings.
//
// Settings are resolved in increasing priority:
//
//  1. built-in defaults ([Default])
//  2. the TOML file at $XDG_CONFIG_HOME/controlgraph/config.toml, or the
//     path given with --config
//  3. CONTROLGRAPH_* environment variables, including those set by a .env
//     file in the working directory
//
// The merged result is checked with struct-tag validation before use.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/controlgraph/pkg/core/motion"
	"github.com/matzehuels/controlgraph/pkg/core/pick"
	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// Config is the full settings tree.
type Config struct {
	// Catalog is an optional catalog file replacing the embedded sample.
	Catalog    string           `toml:"catalog"`
	View       ViewConfig       `toml:"view"`
	TUI        TUIConfig        `toml:"tui"`
	Server     ServerConfig     `toml:"server"`
	Cache      CacheConfig      `toml:"cache"`
	Compliance ComplianceConfig `toml:"compliance"`
}

// ViewConfig tunes the interactive graph served over HTTP.
type ViewConfig struct {
	Damping        float64       `toml:"damping" validate:"gt=0,lte=1"`
	Epsilon        float64       `toml:"epsilon" validate:"gt=0"`
	PickRadius     float64       `toml:"pick_radius" validate:"gt=0"`
	FrameInterval  time.Duration `toml:"frame_interval" validate:"gt=0"`
	DeselectOnMiss bool          `toml:"deselect_on_miss"`
}

// TUIConfig tunes the terminal explorer, whose units are character cells.
type TUIConfig struct {
	PickRadius    float64       `toml:"pick_radius" validate:"gt=0"`
	FrameInterval time.Duration `toml:"frame_interval" validate:"gt=0"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string        `toml:"addr" validate:"required"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	RateLimit      float64       `toml:"rate_limit" validate:"gt=0"`
	Burst          int           `toml:"burst" validate:"gte=1"`
	SessionTTL     time.Duration `toml:"session_ttl" validate:"gt=0"`
	MaxSessions    int           `toml:"max_sessions" validate:"gte=1"`
}

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend   string        `toml:"backend" validate:"oneof=file redis none"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr" validate:"required_if=Backend redis"`
	Prefix    string        `toml:"prefix"`
	TTL       time.Duration `toml:"ttl" validate:"gte=0"`
}

// ComplianceConfig seeds the fabricated compliance data.
type ComplianceConfig struct {
	Seed uint64 `toml:"seed"`
}

// Default returns the built-in settings.
func Default() *Config {
	p := motion.DefaultParams()
	return &Config{
		View: ViewConfig{
			Damping:        p.Damping,
			Epsilon:        p.Epsilon,
			PickRadius:     pick.DefaultRadius,
			FrameInterval:  view.DefaultFrameInterval,
			DeselectOnMiss: true,
		},
		TUI: TUIConfig{
			PickRadius:    2.5,
			FrameInterval: 33 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:        "localhost:8080",
			RateLimit:   120,
			Burst:       60,
			SessionTTL:  15 * time.Minute,
			MaxSessions: 1000,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			Prefix:  "controlgraph:",
			TTL:     24 * time.Hour,
		},
		Compliance: ComplianceConfig{Seed: 42},
	}
}

// DefaultPath returns the user-level config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "controlgraph", "config.toml"), nil
}

// Load resolves the configuration. An empty path uses [DefaultPath] and
// tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path, explicit); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string, required bool) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if required {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %s", path, undecoded[0])
	}
	return nil
}

// Params returns the easing parameters.
func (v ViewConfig) Params() motion.Params {
	return motion.Params{Damping: v.Damping, Epsilon: v.Epsilon}
}

// Options returns the view options these settings describe.
func (v ViewConfig) Options() []view.Option {
	return []view.Option{
		view.WithParams(v.Params()),
		view.WithPickRadius(v.PickRadius),
		view.WithDeselectOnMiss(v.DeselectOnMiss),
	}
}
