package memory

import (
	"netbank/internal/repository"
)

var (
	_ repository.AccountStore   = (*AccountStore)(nil)
	_ repository.PayeeDirectory = (*PayeeDirectory)(nil)
	_ repository.Ledger         = (*Ledger)(nil)
)
