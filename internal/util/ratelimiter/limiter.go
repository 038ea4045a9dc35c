package ratelimiter

import (
	"sync"
	"time"
)

// Limiter paces a recurring action to at most one per interval.
// It is safe for concurrent use. A zero interval disables the action.
type Limiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastAllowed time.Time
	now         func() time.Time
}

// New creates a new limiter with the specified interval.
func New(interval time.Duration) *Limiter {
	return NewWithClock(interval, time.Now)
}

// NewWithClock creates a limiter that reads time from now.
func NewWithClock(interval time.Duration, now func() time.Time) *Limiter {
	return &Limiter{
		interval: interval,
		now:      now,
	}
}

// Allow reports whether the action may run now. When allowed it records
// the time; otherwise it returns the remaining wait.
func (l *Limiter) Allow() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.interval <= 0 {
		return false, 0
	}

	now := l.now()
	timeSinceLast := now.Sub(l.lastAllowed)

	if l.lastAllowed.IsZero() || timeSinceLast >= l.interval {
		l.lastAllowed = now
		return true, 0
	}

	return false, l.interval - timeSinceLast
}

// Reset clears the limiter state, allowing the next action immediately.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.lastAllowed = time.Time{}
	l.mu.Unlock()
}

// Defer pushes the next allowed action one full interval out, as if it had
// just run. Used when the action was performed manually.
func (l *Limiter) Defer() {
	l.mu.Lock()
	l.lastAllowed = l.now()
	l.mu.Unlock()
}

// TimeSinceLastAllowed returns the duration since the last allowed action.
// Returns a very large duration if no action has been allowed yet.
func (l *Limiter) TimeSinceLastAllowed() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastAllowed.IsZero() {
		return time.Duration(1<<63 - 1) // Max duration
	}
	return l.now().Sub(l.lastAllowed)
}

// Interval returns the configured interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
