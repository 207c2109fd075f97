package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"netbank/internal/domain"
	"netbank/internal/repository"
)

// Engine validates and executes transfers against the account store and the
// ledger, and serves read-only transaction queries. The whole
// validate-then-mutate sequence of ExecuteTransfer runs under one mutex:
// two interleaved transfers from the same source could otherwise both pass
// the balance check against a stale value.
type Engine struct {
	accounts repository.AccountStore
	ledger   repository.Ledger
	mu       sync.Mutex
	logger   *slog.Logger
}

func NewEngine(accounts repository.AccountStore, ledger repository.Ledger, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		accounts: accounts,
		ledger:   ledger,
		logger:   logger,
	}
}

// TransferRequest carries one requested money movement. DestinationAccount
// is an account number; payee aliases are resolved by the caller before
// invocation. Amount is a decimal string.
type TransferRequest struct {
	SourceAccount      int64
	DestinationAccount int64
	Amount             string
	Description        string
}

// TransferResult reports the balances and ledger entries produced by a
// successful transfer. DestinationKnown is false when the destination was
// an unregistered payee/external target; DestinationBalance is only
// meaningful when it is true.
type TransferResult struct {
	SourceBalance      decimal.Decimal
	DestinationBalance decimal.Decimal
	DestinationKnown   bool
	Records            []domain.TransactionRecord
}

// ExecuteTransfer validates the request and, on success, moves the amount
// and appends one DEBIT and one CREDIT record at the head of the ledger.
// Validation short-circuits on the first failing check.
func (e *Engine) ExecuteTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	source, err := e.accounts.Get(ctx, req.SourceAccount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrSourceNotFound, req.SourceAccount)
		}
		return nil, fmt.Errorf("failed to get source account: %w", err)
	}

	if req.SourceAccount == req.DestinationAccount {
		return nil, ErrSelfTransfer
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, req.Amount)
	}

	if source.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%w: account %d", ErrInsufficientFunds, req.SourceAccount)
	}

	description := req.Description
	if description == "" {
		description = domain.DefaultDescription
	}

	now := time.Now()

	sourceBalance := source.Balance.Sub(amount)
	if err := e.accounts.SetBalance(ctx, req.SourceAccount, sourceBalance); err != nil {
		return nil, fmt.Errorf("failed to debit source account: %w", err)
	}

	debit := domain.NewDebit(now, amount, req.SourceAccount, req.DestinationAccount, sourceBalance, description)

	result := &TransferResult{SourceBalance: sourceBalance}

	var credit domain.TransactionRecord
	destination, err := e.accounts.Get(ctx, req.DestinationAccount)
	switch {
	case err == nil:
		destinationBalance := destination.Balance.Add(amount)
		if err := e.accounts.SetBalance(ctx, req.DestinationAccount, destinationBalance); err != nil {
			return nil, fmt.Errorf("failed to credit destination account: %w", err)
		}
		credit = domain.NewCredit(now, amount, req.SourceAccount, req.DestinationAccount, destinationBalance, description)
		result.DestinationBalance = destinationBalance
		result.DestinationKnown = true
	case errors.Is(err, repository.ErrNotFound):
		// Unregistered payee/external destination: no ledger exists to
		// credit, so the CREDIT entry documents the debit's counterpart
		// against the already-updated source balance.
		credit = domain.NewCredit(now, amount, req.SourceAccount, req.DestinationAccount, sourceBalance, domain.ExternalDescription)
	default:
		return nil, fmt.Errorf("failed to get destination account: %w", err)
	}

	if err := e.ledger.Push(ctx, debit, credit); err != nil {
		return nil, fmt.Errorf("failed to append ledger records: %w", err)
	}
	result.Records = []domain.TransactionRecord{debit, credit}

	e.logger.InfoContext(ctx, "Transfer completed",
		slog.Int64("source_account", req.SourceAccount),
		slog.Int64("destination_account", req.DestinationAccount),
		slog.String("amount", amount.String()),
		slog.Bool("destination_known", result.DestinationKnown))

	return result, nil
}
