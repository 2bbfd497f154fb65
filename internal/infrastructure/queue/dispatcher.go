package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/realtyhub/marketplace-api/internal/api/metrics"
	"github.com/realtyhub/marketplace-api/internal/core/domain"
	"github.com/realtyhub/marketplace-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 256
	persistTimeout = 5 * time.Second
)

// AuditDispatcher persists audit entries off the request path. Entries are
// sharded by actor so each principal's trail is written in order. Enqueue
// never blocks: when a worker channel is full the entry is dropped.
type AuditDispatcher struct {
	workers []chan *domain.AuditEntry
	repo    ports.AuditRepository
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAuditDispatcher creates a dispatcher with numWorkers sharded workers,
// each buffering up to buffer entries. Non-positive values take defaults.
func NewAuditDispatcher(numWorkers, buffer int, repo ports.AuditRepository, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	d := &AuditDispatcher{
		workers: make([]chan *domain.AuditEntry, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.AuditEntry, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers run until Shutdown drains
// their channels.
func (d *AuditDispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Enqueue hands entry to its worker and reports whether it was accepted.
func (d *AuditDispatcher) Enqueue(entry *domain.AuditEntry) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.AuditEntriesTotal.WithLabelValues("dropped").Inc()
		return false
	}

	idx := d.shardIndex(entry.ActorID)
	select {
	case d.workers[idx] <- entry:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.AuditEntriesTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("action", entry.Action).
			Int("worker_id", idx).
			Msg("audit queue full, entry dropped")
		return false
	}
}

// Shutdown stops accepting entries and waits for queued ones to be written,
// or for ctx to expire.
func (d *AuditDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an actor deterministically to a worker index. Anonymous
// entries share a single worker.
func (d *AuditDispatcher) shardIndex(actorID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(id int, ch <-chan *domain.AuditEntry) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for entry := range ch {
		metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := d.repo.Insert(ctx, entry)
		cancel()

		if err != nil {
			metrics.AuditEntriesTotal.WithLabelValues("failed").Inc()
			d.log.Error().Err(err).
				Str("action", entry.Action).
				Str("actor_id", entry.ActorID).
				Int("worker_id", id).
				Msg("audit entry persistence failed")
			continue
		}
		metrics.AuditEntriesTotal.WithLabelValues("persisted").Inc()
	}
}
