// Package throttle admits outbound calls against a sliding-window rate limit.
//
// At most Limit admissions happen inside any rolling Window, in FIFO arrival
// order. Callers that cannot be admitted wait until the oldest admission in the
// window expires.
package throttle

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLimit  = 40
	DefaultWindow = 10 * time.Second
)

// Clock lets tests drive the window without sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type waiter struct {
	admitted chan struct{}
}

type Throttler struct {
	limit  int
	window time.Duration
	clock  Clock

	mu         sync.Mutex
	timestamps []time.Time
	queue      []*waiter
	processing bool
}

type Option func(*Throttler)

func WithClock(c Clock) Option {
	return func(t *Throttler) { t.clock = c }
}

// New returns a throttler admitting limit calls per window. Non-positive
// values fall back to the defaults.
func New(limit int, window time.Duration, opts ...Option) *Throttler {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	t := &Throttler{
		limit:  limit,
		window: window,
		clock:  realClock{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Admit blocks until the caller is admitted. The only error is ctx.Err() when
// the caller gives up its place in the queue first.
func (t *Throttler) Admit(ctx context.Context) error {
	w := &waiter{admitted: make(chan struct{})}

	t.mu.Lock()
	t.queue = append(t.queue, w)
	if !t.processing {
		t.processing = true
		go t.process()
	}
	t.mu.Unlock()

	select {
	case <-w.admitted:
		return nil
	case <-ctx.Done():
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, queued := range t.queue {
			if queued == w {
				t.queue = append(t.queue[:i], t.queue[i+1:]...)
				return ctx.Err()
			}
		}
		// admitted concurrently with the cancellation; the slot is already spent
		return nil
	}
}

// Pending reports how many callers are waiting for admission.
func (t *Throttler) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

func (t *Throttler) process() {
	for {
		t.mu.Lock()
		now := t.clock.Now()
		t.prune(now)

		for len(t.queue) > 0 && len(t.timestamps) < t.limit {
			w := t.queue[0]
			t.queue = t.queue[1:]
			t.timestamps = append(t.timestamps, now)
			close(w.admitted)
		}

		if len(t.queue) == 0 {
			t.processing = false
			t.mu.Unlock()
			return
		}

		wait := t.window - now.Sub(t.timestamps[0])
		t.mu.Unlock()

		<-t.clock.After(wait)
	}
}

// prune drops admissions that fell out of the window ending at now.
func (t *Throttler) prune(now time.Time) {
	cut := 0
	for cut < len(t.timestamps) && now.Sub(t.timestamps[cut]) >= t.window {
		cut++
	}
	if cut > 0 {
		t.timestamps = append(t.timestamps[:0], t.timestamps[cut:]...)
	}
}
