package ports

import (
	"context"
	"time"
)

// Counter is the state of one fixed window.
type Counter struct {
	Count   int
	ResetAt time.Time
}

// CounterStore holds fixed-window counters keyed by action and identifier.
//
// Take performs the whole check-and-increment as one atomic step: when no
// live window exists it opens one with Count=1; when Count < limit it
// increments; otherwise it leaves the counter untouched and reports false.
type CounterStore interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (Counter, bool, error)
}
