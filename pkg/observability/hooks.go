// Package observability provides hooks for metrics and logging.
//
// Instrumentation is optional: libraries emit events through small hook
// interfaces and the binary decides, at startup, what receives them. The
// defaults are no-ops, so packages such as view and cache never depend on a
// specific metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    c := prom.New("controlgraph")
//	    observability.SetViewHooks(c)
//	    observability.SetHTTPHooks(c)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.View().OnLayout(ctx, focus, nodeCount, skipped, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// View Hooks
// =============================================================================

// ViewHooks receives events from interactive graph views.
type ViewHooks interface {
	// OnLayout records a target recomputation. focus is empty when unfocused.
	OnLayout(ctx context.Context, focus string, nodeCount, skipped int, duration time.Duration)

	// OnSelect records a selection change. id is empty when deselected.
	OnSelect(ctx context.Context, id string, source string)

	// OnSettled records that an animation converged after ticks steps.
	OnSettled(ctx context.Context, ticks int, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records a served request. route is the chi route pattern.
	OnRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration)

	// OnRateLimited records a request rejected by the pointer limiter.
	OnRateLimited(ctx context.Context, route string)

	// OnSessions records the number of live view sessions.
	OnSessions(ctx context.Context, active int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopViewHooks is a no-op implementation of ViewHooks.
type NoopViewHooks struct{}

func (NoopViewHooks) OnLayout(context.Context, string, int, int, time.Duration) {}
func (NoopViewHooks) OnSelect(context.Context, string, string)                  {}
func (NoopViewHooks) OnSettled(context.Context, int, time.Duration)             {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnRateLimited(context.Context, string)                         {}
func (NoopHTTPHooks) OnSessions(context.Context, int)                               {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	viewHooks  ViewHooks  = NoopViewHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetViewHooks registers custom view hooks.
// This should be called once at application startup before any view is created.
func SetViewHooks(h ViewHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		viewHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// View returns the registered view hooks.
func View() ViewHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return viewHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	viewHooks = NoopViewHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
