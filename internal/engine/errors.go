package engine

import "errors"

// Transfer failures are permanent for the request that caused them and
// leave the account store and ledger unchanged; the engine never performs
// a mutation before the last validation check passes.
var (
	ErrSourceNotFound    = errors.New("source account not found")
	ErrSelfTransfer      = errors.New("source and destination are the same account")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrInsufficientFunds = errors.New("insufficient balance")

	ErrInvalidFilterRange = errors.New("date-from is after date-to")
)
