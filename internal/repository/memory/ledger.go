package memory

import (
	"context"
	"sync"

	"netbank/internal/domain"
)

// Ledger keeps records newest-first: Push inserts at the head, in argument
// order, so the last record pushed in one call ends up at index 0.
type Ledger struct {
	mu      sync.RWMutex
	records []domain.TransactionRecord
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Push(ctx context.Context, records ...domain.TransactionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range records {
		l.records = append([]domain.TransactionRecord{r}, l.records...)
	}

	return nil
}

func (l *Ledger) Snapshot(ctx context.Context) ([]domain.TransactionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.TransactionRecord, len(l.records))
	copy(out, l.records)
	return out, nil
}

func (l *Ledger) Len(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.records), nil
}
