package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"netbank/internal/domain"
)

// Filter selects ledger records; a nil/zero field imposes no constraint.
// AccountNumber matches either side of a record. Date bounds are inclusive.
type Filter struct {
	AccountNumber *int64
	Kind          domain.TransactionKind
	DateFrom      *time.Time
	DateTo        *time.Time
}

func (f Filter) matches(r domain.TransactionRecord) bool {
	if f.AccountNumber != nil && r.SourceAccount != *f.AccountNumber && r.DestinationAccount != *f.AccountNumber {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.DateFrom != nil && r.Timestamp.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && r.Timestamp.After(*f.DateTo) {
		return false
	}
	return true
}

// QueryTransactions returns the records matching every supplied predicate,
// newest first. Ties on timestamp keep the ledger's own newest-first
// insertion order. The operation is read-only; an empty result is a valid
// outcome, not an error.
func (e *Engine) QueryTransactions(ctx context.Context, filter Filter) ([]domain.TransactionRecord, error) {
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidFilterRange,
			filter.DateFrom.Format(time.RFC3339), filter.DateTo.Format(time.RFC3339))
	}

	snapshot, err := e.ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot ledger: %w", err)
	}

	result := make([]domain.TransactionRecord, 0, len(snapshot))
	for _, r := range snapshot {
		if filter.matches(r) {
			result = append(result, r)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	return result, nil
}
