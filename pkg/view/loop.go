package view

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/errors"
)

// DefaultFrameInterval is the refresh period of a Loop (~60 fps).
const DefaultFrameInterval = 16 * time.Millisecond

// ErrLoopClosed is returned by Loop methods after teardown.
var ErrLoopClosed = errors.New(errors.ErrCodeNotFound, "view loop closed")

// Loop drives a View from a single goroutine.
//
// Events submitted through Do and the convenience methods are applied in
// order, interleaved with refresh ticks. The refresh timer is armed only
// while the view is animating and is stopped when the loop is torn down,
// so no tick fires after Close or context cancellation.
type Loop struct {
	view     *View
	interval time.Duration
	draw     func(Frame)

	events  chan event
	closing chan struct{}
	done    chan struct{}
	once    sync.Once

	mu   sync.RWMutex
	last Frame
}

type event struct {
	fn   func(*View)
	done chan struct{}
}

// NewLoop wraps v. draw, if non-nil, is called on the loop goroutine after
// every tick and every applied event. A non-positive interval selects
// [DefaultFrameInterval].
func NewLoop(v *View, interval time.Duration, draw func(Frame)) *Loop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	l := &Loop{
		view:     v,
		interval: interval,
		draw:     draw,
		events:   make(chan event),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	l.last = v.Frame()
	return l
}

// Run processes events and ticks until ctx is cancelled or Close is
// called. It returns nil after Close and ctx.Err() after cancellation.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	timer := time.NewTimer(l.interval)
	timer.Stop()
	defer timer.Stop()
	armed := false

	arm := func() {
		if !armed && l.view.Animating() {
			timer.Reset(l.interval)
			armed = true
		}
	}

	l.publish()
	arm()

	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.closing:
			return nil
		case ev := <-l.events:
			ev.fn(l.view)
			l.publish()
			close(ev.done)
			arm()
		case <-timer.C:
			armed = false
			l.view.Tick()
			l.publish()
			arm()
		}
	}
}

// Close tears the loop down. It is safe to call more than once.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.closing) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Snapshot returns the most recently published frame. It is safe to call
// from any goroutine.
func (l *Loop) Snapshot() Frame {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Do runs fn on the loop goroutine and waits until it has run and the
// resulting frame has been published.
func (l *Loop) Do(ctx context.Context, fn func(*View)) error {
	ev := event{fn: fn, done: make(chan struct{})}

	select {
	case l.events <- ev:
	case <-l.closing:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ev.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Click applies a click at p and returns the resulting selection.
func (l *Loop) Click(ctx context.Context, p geom.Point) (id string, focused bool, err error) {
	err = l.Do(ctx, func(v *View) { id, focused = v.Click(p) })
	return id, focused, err
}

// Hover updates the hover state for a pointer at p.
func (l *Loop) Hover(ctx context.Context, p geom.Point) (id string, ok bool, err error) {
	err = l.Do(ctx, func(v *View) { id, ok = v.Hover(p) })
	return id, ok, err
}

// Leave clears the hover state.
func (l *Loop) Leave(ctx context.Context) error {
	return l.Do(ctx, func(v *View) { v.Leave() })
}

// Focus focuses id, bypassing the picker.
func (l *Loop) Focus(ctx context.Context, id string) error {
	var ferr error
	if err := l.Do(ctx, func(v *View) { ferr = v.Focus(id) }); err != nil {
		return err
	}
	return ferr
}

// ClearFocus returns to the unfocused layout.
func (l *Loop) ClearFocus(ctx context.Context) error {
	return l.Do(ctx, func(v *View) { v.ClearFocus() })
}

// Resize sets the viewport.
func (l *Loop) Resize(ctx context.Context, vp geom.Viewport) error {
	return l.Do(ctx, func(v *View) { v.Resize(vp) })
}

func (l *Loop) publish() {
	f := l.view.Frame()
	l.mu.Lock()
	l.last = f
	l.mu.Unlock()
	if l.draw != nil {
		l.draw(f)
	}
}
