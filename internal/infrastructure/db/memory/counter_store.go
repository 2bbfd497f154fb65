// Package memory provides in-process stores for single-instance deployments
// and tests: rate-limit counters, principals and the audit log. Nothing is
// shared between processes; use the redis counter store when more than one
// instance serves traffic.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/realtyhub/marketplace-api/internal/core/ports"
)

type counter struct {
	count   int
	resetAt time.Time
}

// CounterStore is a mutex-guarded map of fixed-window counters.
type CounterStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

// NewCounterStore returns an empty store. A nil now uses time.Now.
func NewCounterStore(now func() time.Time) *CounterStore {
	if now == nil {
		now = time.Now
	}
	return &CounterStore{counters: make(map[string]*counter), now: now}
}

// Take implements ports.CounterStore.
func (s *CounterStore) Take(_ context.Context, key string, limit int, window time.Duration) (ports.Counter, bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || now.After(c.resetAt) {
		c = &counter{count: 1, resetAt: now.Add(window)}
		s.counters[key] = c
		return ports.Counter{Count: c.count, ResetAt: c.resetAt}, true, nil
	}
	if c.count < limit {
		c.count++
		return ports.Counter{Count: c.count, ResetAt: c.resetAt}, true, nil
	}
	return ports.Counter{Count: c.count, ResetAt: c.resetAt}, false, nil
}

// Len reports how many counters are held, expired ones included.
func (s *CounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}

// Sweep drops counters whose window has passed and returns how many it removed.
func (s *CounterStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, c := range s.counters {
		if now.After(c.resetAt) {
			delete(s.counters, k)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps every interval until ctx is cancelled.
func (s *CounterStore) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
