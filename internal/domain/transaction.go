package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindDebit  TransactionKind = "DEBIT"
	KindCredit TransactionKind = "CREDIT"
)

// DefaultDescription is used when a transfer request carries no description.
const DefaultDescription = "Fund Transfer"

// ExternalDescription marks a credit logged for an unregistered
// payee/external destination.
const ExternalDescription = "Transferred to payee/external"

// TransactionRecord is one immutable ledger entry. DEBIT entries carry a
// negative Amount and CREDIT entries a positive one; the sign is a display
// convention, the account balance is the single source of truth.
// ResultingBalance snapshots the owning account's balance immediately after
// the entry was applied.
type TransactionRecord struct {
	Timestamp          time.Time       `json:"timestamp"`
	Kind               TransactionKind `json:"kind"`
	Amount             decimal.Decimal `json:"amount"`
	SourceAccount      int64           `json:"source_account"`
	DestinationAccount int64           `json:"destination_account"`
	ResultingBalance   decimal.Decimal `json:"resulting_balance"`
	Description        string          `json:"description"`
}

// StatementRow is the materialized statement line handed to the e-mail
// delivery collaborator.
type StatementRow struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Balance     string `json:"balance"`
}

// NewDebit builds the source-side entry for a transfer. The stored amount
// is negated.
func NewDebit(ts time.Time, amount decimal.Decimal, from, to int64, balance decimal.Decimal, desc string) TransactionRecord {
	return TransactionRecord{
		Timestamp:          ts,
		Kind:               KindDebit,
		Amount:             amount.Neg(),
		SourceAccount:      from,
		DestinationAccount: to,
		ResultingBalance:   balance,
		Description:        desc,
	}
}

// NewCredit builds the destination-side entry for a transfer.
func NewCredit(ts time.Time, amount decimal.Decimal, from, to int64, balance decimal.Decimal, desc string) TransactionRecord {
	return TransactionRecord{
		Timestamp:          ts,
		Kind:               KindCredit,
		Amount:             amount,
		SourceAccount:      from,
		DestinationAccount: to,
		ResultingBalance:   balance,
		Description:        desc,
	}
}
