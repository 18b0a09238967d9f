package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/controlgraph/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONTROLGRAPH_"

type lookupFunc func(string) (string, bool)

// envVar binds one environment variable to a setting.
type envVar struct {
	name  string
	apply func(c *Config, v string) error
}

var envVars = []envVar{
	{"CATALOG", func(c *Config, v string) error { c.Catalog = v; return nil }},
	{"SERVER_ADDR", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"ALLOWED_ORIGINS", func(c *Config, v string) error {
		c.Server.AllowedOrigins = splitList(v)
		return nil
	}},
	{"RATE_LIMIT", func(c *Config, v string) error { return parseFloat(v, &c.Server.RateLimit) }},
	{"SESSION_TTL", func(c *Config, v string) error { return parseDuration(v, &c.Server.SessionTTL) }},
	{"CACHE_BACKEND", func(c *Config, v string) error { c.Cache.Backend = v; return nil }},
	{"CACHE_DIR", func(c *Config, v string) error { c.Cache.Dir = v; return nil }},
	{"REDIS_ADDR", func(c *Config, v string) error { c.Cache.RedisAddr = v; return nil }},
	{"SEED", func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		c.Compliance.Seed = n
		return nil
	}},
	{"DESELECT_ON_MISS", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.View.DeselectOnMiss = b
		return nil
	}},
}

func (c *Config) applyEnv(lookup lookupFunc) error {
	for _, ev := range envVars {
		v, ok := lookup(EnvPrefix + ev.name)
		if !ok || v == "" {
			continue
		}
		if err := ev.apply(c, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s", EnvPrefix, ev.name)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseFloat(v string, dst *float64) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func parseDuration(v string, dst *time.Duration) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
