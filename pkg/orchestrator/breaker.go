package orchestrator

import (
	"sync"
	"time"
)

// Breaker is a per-business circuit breaker over response-generation
// failures. After threshold consecutive failures within the window,
// requests for that business short-circuit to the fallback reply until the
// window elapses.
type Breaker struct {
	mu        sync.Mutex
	failures  map[string][]time.Time
	threshold int
	window    time.Duration
}

// NewBreaker creates a breaker. Defaults: 5 failures per minute.
func NewBreaker(threshold int, window time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Breaker{
		failures:  make(map[string][]time.Time),
		threshold: threshold,
		window:    window,
	}
}

// Tripped reports whether the business's breaker is currently open.
func (b *Breaker) Tripped(businessID string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	recent := b.prune(businessID, now)
	return len(recent) >= b.threshold
}

// RecordFailure notes one phase-3 failure.
func (b *Breaker) RecordFailure(businessID string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[businessID] = append(b.prune(businessID, now), now)
}

// RecordSuccess resets the consecutive-failure run.
func (b *Breaker) RecordSuccess(businessID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, businessID)
}

// prune drops failures outside the window. Caller holds the lock.
func (b *Breaker) prune(businessID string, now time.Time) []time.Time {
	recent := b.failures[businessID][:0:0]
	for _, t := range b.failures[businessID] {
		if now.Sub(t) < b.window {
			recent = append(recent, t)
		}
	}
	if len(recent) == 0 {
		delete(b.failures, businessID)
	} else {
		b.failures[businessID] = recent
	}
	return recent
}
