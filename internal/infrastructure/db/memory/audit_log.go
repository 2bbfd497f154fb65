package memory

import (
	"context"
	"sync"

	"github.com/realtyhub/marketplace-api/internal/core/domain"
)

// AuditLog is an append-only in-memory audit store.
type AuditLog struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) Insert(_ context.Context, entry *domain.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *entry)
	return nil
}

// Entries returns a copy of everything recorded so far, oldest first.
func (l *AuditLog) Entries() []domain.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.AuditEntry(nil), l.entries...)
}
