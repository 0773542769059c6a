// Package ratelimit provides keyed token-bucket limits for per-business
// request quotas.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Keyed is a map of token buckets, one per key, all sharing the same rate.
type Keyed struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewKeyed creates a keyed limiter allowing n events per window. The burst
// equals n, so a quiet key can use its whole window at once.
func NewKeyed(n int, window time.Duration) *Keyed {
	return &Keyed{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(n) / window.Seconds()),
		burst:    n,
	}
}

// Allow reports whether one event for key fits the quota, consuming a token
// when it does.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	l, ok := k.limiters[key]
	if !ok {
		l = rate.NewLimiter(k.limit, k.burst)
		k.limiters[key] = l
	}
	k.mu.Unlock()
	return l.Allow()
}

// Guard bundles the three per-business quotas the API enforces.
type Guard struct {
	writes  *Keyed
	ingress *Keyed
	daily   *Keyed
}

// NewGuard creates a guard. writesPerMinute covers configuration writes;
// ingressPerMinute and messagesPerDay both cover message ingress.
func NewGuard(writesPerMinute, ingressPerMinute, messagesPerDay int) *Guard {
	return &Guard{
		writes:  NewKeyed(writesPerMinute, time.Minute),
		ingress: NewKeyed(ingressPerMinute, time.Minute),
		daily:   NewKeyed(messagesPerDay, 24*time.Hour),
	}
}

// AllowWrite checks the configuration-write quota for a business.
func (g *Guard) AllowWrite(businessID string) bool {
	return g.writes.Allow(businessID)
}

// AllowMessage checks both the per-minute and the daily ingress quotas. The
// daily token is only spent when the minute quota admits the message.
func (g *Guard) AllowMessage(businessID string) bool {
	if !g.ingress.Allow(businessID) {
		return false
	}
	return g.daily.Allow(businessID)
}
