// Package ratelimit provides the sliding window limiter the demo gateway
// uses to cap how many runs a session may start.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultRunsPerMinute is the run budget per session when none is configured.
const DefaultRunsPerMinute = 20

// window holds the start times of recent runs for one key
type window struct {
	starts     []time.Time
	lastAccess time.Time
}

// Limiter is a sliding window limiter keyed by an arbitrary string
// (a session key in the gateway). It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	span    time.Duration
	limit   int
	now     func() time.Time
}

// New creates a limiter admitting limit events per span for each key.
// A limit of zero or less disables limiting.
func New(span time.Duration, limit int) *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		span:    span,
		limit:   limit,
		now:     time.Now,
	}
}

// Allow records an event for key if the key is under its limit.
// When refused, retryAfter is how long until the oldest event leaves the window.
func (l *Limiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	if l.limit <= 0 {
		return true, 0, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}
	w.lastAccess = now
	w.starts = trim(w.starts, now.Add(-l.span))

	if len(w.starts) >= l.limit {
		retryAfter = w.starts[0].Add(l.span).Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, 0, retryAfter
	}

	w.starts = append(w.starts, now)
	return true, l.limit - len(w.starts), 0
}

// Prune drops keys idle for more than two windows and returns how many
// were removed.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-2 * l.span)
	removed := 0
	for key, w := range l.windows {
		if w.lastAccess.Before(cutoff) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// trim drops timestamps at or before cutoff. starts is in ascending order.
func trim(starts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(starts) && !starts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return starts
	}
	kept := make([]time.Time, len(starts)-i)
	copy(kept, starts[i:])
	return kept
}
