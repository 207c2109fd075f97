package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"netbank/internal/domain"
)

type AccountStore interface {
	Save(ctx context.Context, account *domain.Account) error
	Get(ctx context.Context, accountNumber int64) (*domain.Account, error)
	GetByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error)
	// SetBalance replaces an account balance in place. Reserved for the
	// transfer engine; every other caller treats the store as read-only.
	SetBalance(ctx context.Context, accountNumber int64, balance decimal.Decimal) error
	All(ctx context.Context) ([]*domain.Account, error)
}

type PayeeDirectory interface {
	Save(ctx context.Context, payee *domain.Payee) error
	Get(ctx context.Context, payeeID string) (*domain.Payee, error)
	GetByCustomer(ctx context.Context, customerID string) ([]*domain.Payee, error)
	Update(ctx context.Context, payee *domain.Payee) error
	Delete(ctx context.Context, payeeID string) error
	// Resolve maps a payee alias to its destination account number.
	Resolve(ctx context.Context, payeeID string) (int64, error)
}

// Ledger is append-only and ordered newest-first. Records are never
// rewritten once pushed.
type Ledger interface {
	Push(ctx context.Context, records ...domain.TransactionRecord) error
	Snapshot(ctx context.Context) ([]domain.TransactionRecord, error)
	Len(ctx context.Context) (int, error)
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)
