package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when the per-conversation lease cannot be acquired
// within the timeout.
var ErrBusy = errors.New("conversation is busy")

type lease struct {
	sem  chan struct{}
	refs int
}

// LeaseManager hands out per-conversation write leases for single-node
// deployments. Multi-node deployments replace this with a Postgres advisory
// lock keyed by conversation_id.
type LeaseManager struct {
	mu      sync.Mutex
	leases  map[string]*lease
	timeout time.Duration
}

// NewLeaseManager creates a lease manager. timeout bounds acquisition.
func NewLeaseManager(timeout time.Duration) *LeaseManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LeaseManager{
		leases:  make(map[string]*lease),
		timeout: timeout,
	}
}

// Acquire blocks until the lease for key is free, the timeout elapses
// (ErrBusy), or ctx is done. The returned release function must be called
// exactly once.
func (m *LeaseManager) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	l, ok := m.leases[key]
	if !ok {
		l = &lease{sem: make(chan struct{}, 1)}
		m.leases[key] = l
	}
	l.refs++
	m.mu.Unlock()

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			m.put(key, l)
		}, nil
	case <-timer.C:
		m.put(key, l)
		return nil, ErrBusy
	case <-ctx.Done():
		m.put(key, l)
		return nil, ctx.Err()
	}
}

// put drops one reference and evicts the map entry once nobody holds or
// waits on it.
func (m *LeaseManager) put(key string, l *lease) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.leases, key)
	}
}
