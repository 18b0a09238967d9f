package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/observability"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// Store is an in-memory session registry. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	ttl      time.Duration
	max      int
	interval time.Duration
	limit    rate.Limit
	burst    int
	hooks    observability.HTTPHooks
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the idle timeout.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMaxSessions caps the number of open sessions.
func WithMaxSessions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithFrameInterval sets the refresh period of session loops.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Store) { s.interval = d }
}

// WithEventLimit sets the per-session pointer event rate.
func WithEventLimit(perSecond float64, burst int) Option {
	return func(s *Store) {
		if perSecond > 0 {
			s.limit = rate.Limit(perSecond)
		}
		if burst > 0 {
			s.burst = burst
		}
	}
}

// WithHooks overrides the globally registered HTTP hooks.
func WithHooks(h observability.HTTPHooks) Option {
	return func(s *Store) {
		if h != nil {
			s.hooks = h
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      DefaultTTL,
		max:      DefaultMaxSessions,
		interval: view.DefaultFrameInterval,
		limit:    DefaultEventRate,
		burst:    DefaultEventBurst,
		hooks:    observability.HTTP(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a session for v and starts its loop.
func (s *Store) Create(v *view.View) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New(errors.ErrCodeUnsupported, "session store closed")
	}
	if len(s.sessions) >= s.max {
		return nil, errors.New(errors.ErrCodeRateLimited, "too many open sessions (%d)", s.max)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
		Loop:      view.NewLoop(v, s.interval, nil),
		Limiter:   rate.NewLimiter(s.limit, s.burst),
		cancel:    cancel,
	}
	sess.touch(sess.CreatedAt)
	go sess.Loop.Run(ctx) //nolint:errcheck // exits via cancel

	s.sessions[sess.ID] = sess
	s.hooks.OnSessions(context.Background(), len(s.sessions))
	return sess, nil
}

// Get returns the session with id and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	sess.touch(s.now())
	return sess, nil
}

// Delete tears the session down. Its loop has exited when Delete returns.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	sess.stop()
	s.hooks.OnSessions(context.Background(), n)
	return nil
}

// Len returns the number of open sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how
// many were removed.
func (s *Store) Cleanup(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.IdleFor(now) > s.ttl {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.stop()
	}
	if len(expired) > 0 {
		s.hooks.OnSessions(ctx, n)
	}
	return len(expired)
}

// Janitor runs Cleanup every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = s.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Cleanup(ctx)
		}
	}
}

// Close tears down every session. Later Create calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.stop()
	}
	s.hooks.OnSessions(context.Background(), 0)
	return nil
}
