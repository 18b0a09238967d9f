package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/controlgraph/pkg/observability"
)

// Observed wraps a cache and reports hits, misses and writes to the
// registered [observability.CacheHooks].
type Observed struct {
	Cache
	hooks observability.CacheHooks
}

// NewObserved wraps c. A nil hooks value uses the global registry.
func NewObserved(c Cache, hooks observability.CacheHooks) *Observed {
	if hooks == nil {
		hooks = observability.Cache()
	}
	return &Observed{Cache: c, hooks: hooks}
}

// Get implements Cache.
func (o *Observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := o.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			o.hooks.OnCacheHit(ctx, keyType(key))
		} else {
			o.hooks.OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

// Set implements Cache.
func (o *Observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		o.hooks.OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

// Clear forwards to the wrapped cache when it supports clearing.
func (o *Observed) Clear(ctx context.Context) error {
	if c, ok := o.Cache.(Clearer); ok {
		return c.Clear(ctx)
	}
	return nil
}

// keyType returns the type segment of a key, skipping any scope prefix:
// "controlgraph:artifact:ab12…" is an artifact key.
func keyType(key string) string {
	for _, t := range []string{KeyTypeLayout, KeyTypeArtifact} {
		if strings.HasPrefix(key, t+":") || strings.Contains(key, ":"+t+":") {
			return t
		}
	}
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
