// Package httputil fetches remote catalogs over HTTP.
//
// # Overview
//
// A [Fetcher] downloads a document, retrying transient failures and caching
// the body in a [cache.Cache] so repeated runs work offline:
//
//	f := httputil.NewFetcher(store)
//	data, cached, err := f.Get(ctx, "https://example.com/catalog.yaml")
//
// # Retry
//
// Network errors, 5xx responses and 429 rate limit responses are retried
// with exponential backoff via [cache.Retry]. Other non-200 responses fail
// immediately with a [StatusError].
//
// # Configuration
//
// Defaults:
//
//   - Attempts: 3
//   - Base backoff: 1 second
//   - Cache TTL: 1 hour
//   - Maximum body size: 4 MiB
package httputil
