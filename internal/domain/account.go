package domain

import (
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountSavings AccountType = "Savings"
	AccountCurrent AccountType = "Current"
)

// Account is a balance holder owned by the account store for the lifetime
// of a session. AccountNumber is immutable; Balance is mutated only by the
// transfer engine.
type Account struct {
	AccountNumber int64           `json:"account_number"`
	AccountType   AccountType     `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	CustomerID    string          `json:"customer_id"`
}

// Payee is a named alias resolving to a destination account number.
// It owns no balance.
type Payee struct {
	PayeeID       string `json:"payee_id"`
	CustomerID    string `json:"customer_id"`
	Name          string `json:"name"`
	BankName      string `json:"bank_name"`
	IFSCCode      string `json:"ifsc_code"`
	AccountNumber int64  `json:"account_number"`
}
