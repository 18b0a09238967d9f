// Package session manages interactive view sessions served over HTTP.
//
// Each session owns a [view.Loop] running on its own goroutine. The loop
// lives until the session is deleted, the store is closed, or the session
// has been idle for longer than the store's TTL and a cleanup pass runs.
//
// # Usage
//
//	store := session.NewStore(session.WithTTL(15 * time.Minute))
//	defer store.Close()
//
//	go store.Janitor(ctx, time.Minute)
//
//	sess, err := store.Create(view.New(catalog.Default()))
//	...
//	sess, err = store.Get(id) // refreshes the idle timer
package session

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/matzehuels/controlgraph/pkg/view"
)

// Default limits.
const (
	// DefaultTTL is how long a session may stay idle.
	DefaultTTL = 15 * time.Minute

	// DefaultMaxSessions caps concurrently open sessions.
	DefaultMaxSessions = 1000

	// DefaultEventRate and DefaultEventBurst bound pointer events per session.
	DefaultEventRate  = 120
	DefaultEventBurst = 60
)

// Session is one client's interactive view.
type Session struct {
	ID        string
	CreatedAt time.Time

	// Loop drives the session's view. Use it for every read and write.
	Loop *view.Loop

	// Limiter throttles pointer events from the client.
	Limiter *rate.Limiter

	cancel   context.CancelFunc
	lastSeen atomic.Int64
}

// LastSeen returns the last time the session was accessed.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(t time.Time) {
	s.lastSeen.Store(t.UnixNano())
}

// IdleFor reports how long the session has been idle at now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastSeen())
}

// stop cancels the loop and waits for it to exit.
func (s *Session) stop() {
	s.cancel()
	<-s.Loop.Done()
}
