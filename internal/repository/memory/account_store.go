package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"netbank/internal/domain"
	"netbank/internal/repository"
)

type AccountStore struct {
	mu            sync.RWMutex
	accounts      map[int64]*domain.Account
	customerIndex map[string][]int64
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts:      make(map[int64]*domain.Account),
		customerIndex: make(map[string][]int64),
	}
}

func (s *AccountStore) Save(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.AccountNumber]; exists {
		return fmt.Errorf("%w: account %d", repository.ErrDuplicate, account.AccountNumber)
	}

	cp := *account
	s.accounts[account.AccountNumber] = &cp
	s.customerIndex[account.CustomerID] = append(s.customerIndex[account.CustomerID], account.AccountNumber)

	return nil
}

func (s *AccountStore) Get(ctx context.Context, accountNumber int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[accountNumber]
	if !exists {
		return nil, fmt.Errorf("%w: account %d", repository.ErrNotFound, accountNumber)
	}
	cp := *account
	return &cp, nil
}

func (s *AccountStore) GetByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	numbers, exists := s.customerIndex[customerID]
	if !exists {
		return nil, fmt.Errorf("%w: customer %s", repository.ErrNotFound, customerID)
	}

	var result []*domain.Account
	for _, n := range numbers {
		if account, exists := s.accounts[n]; exists {
			cp := *account
			result = append(result, &cp)
		}
	}

	return result, nil
}

func (s *AccountStore) SetBalance(ctx context.Context, accountNumber int64, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[accountNumber]
	if !exists {
		return fmt.Errorf("%w: account %d", repository.ErrNotFound, accountNumber)
	}

	account.Balance = balance

	return nil
}

func (s *AccountStore) All(ctx context.Context) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Account
	for _, account := range s.accounts {
		cp := *account
		result = append(result, &cp)
	}

	return result, nil
}
