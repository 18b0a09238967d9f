package httputil

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/controlgraph/pkg/buildinfo"
	"github.com/matzehuels/controlgraph/pkg/cache"
	"github.com/matzehuels/controlgraph/pkg/errors"
)

// KeyTypeRemote prefixes cache keys of fetched documents.
const KeyTypeRemote = "remote"

// Defaults for NewFetcher.
const (
	DefaultAttempts = 3
	DefaultDelay    = time.Second
	DefaultTTL      = time.Hour
	DefaultMaxBytes = 4 << 20
	DefaultTimeout  = 30 * time.Second
)

// StatusError is returned for a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the request is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Fetcher downloads documents with retry and caching. The zero value is not
// usable; use NewFetcher.
type Fetcher struct {
	Client   *http.Client
	Cache    cache.Cache
	TTL      time.Duration
	Attempts int
	Delay    time.Duration
	MaxBytes int64
	// Refresh skips cache reads.
	Refresh bool
}

// NewFetcher returns a fetcher that caches in c. A nil c disables caching.
func NewFetcher(c cache.Cache) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Fetcher{
		Client:   &http.Client{Timeout: DefaultTimeout},
		Cache:    c,
		TTL:      DefaultTTL,
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
		MaxBytes: DefaultMaxBytes,
	}
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Get returns the body at rawURL and whether it came from the cache.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, bool, error) {
	if !IsURL(rawURL) {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "not an http(s) URL: %s", rawURL)
	}

	key := KeyTypeRemote + ":" + cache.Hash([]byte(rawURL))
	if !f.Refresh {
		if data, hit, err := f.Cache.Get(ctx, key); err == nil && hit {
			return data, true, nil
		}
	}

	var body []byte
	err := cache.Retry(ctx, f.Attempts, f.Delay, func() error {
		var err error
		body, err = f.fetch(ctx, rawURL)
		return err
	})
	if err != nil {
		var se *StatusError
		if stderrors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "catalog not found: %s", rawURL)
		}
		return nil, false, err
	}

	_ = f.Cache.Set(ctx, key, body, f.TTL)
	return body, false, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "controlgraph/"+buildinfo.Version)

	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		se := &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
		if se.Temporary() {
			return nil, cache.Retryable(se)
		}
		return nil, se
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return nil, cache.Retryable(err)
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: body exceeds %d bytes", rawURL, f.MaxBytes)
	}
	return data, nil
}
