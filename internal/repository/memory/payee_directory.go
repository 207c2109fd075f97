package memory

import (
	"context"
	"fmt"
	"sync"

	"netbank/internal/domain"
	"netbank/internal/repository"
)

type PayeeDirectory struct {
	mu            sync.RWMutex
	payees        map[string]*domain.Payee
	customerIndex map[string][]string
}

func NewPayeeDirectory() *PayeeDirectory {
	return &PayeeDirectory{
		payees:        make(map[string]*domain.Payee),
		customerIndex: make(map[string][]string),
	}
}

func (d *PayeeDirectory) Save(ctx context.Context, payee *domain.Payee) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.payees[payee.PayeeID]; exists {
		return fmt.Errorf("%w: payee %s", repository.ErrDuplicate, payee.PayeeID)
	}

	cp := *payee
	d.payees[payee.PayeeID] = &cp
	d.customerIndex[payee.CustomerID] = append(d.customerIndex[payee.CustomerID], payee.PayeeID)

	return nil
}

func (d *PayeeDirectory) Get(ctx context.Context, payeeID string) (*domain.Payee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	payee, exists := d.payees[payeeID]
	if !exists {
		return nil, fmt.Errorf("%w: payee %s", repository.ErrNotFound, payeeID)
	}
	cp := *payee
	return &cp, nil
}

func (d *PayeeDirectory) GetByCustomer(ctx context.Context, customerID string) ([]*domain.Payee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids, exists := d.customerIndex[customerID]
	if !exists {
		return []*domain.Payee{}, nil
	}

	var result []*domain.Payee
	for _, id := range ids {
		if payee, exists := d.payees[id]; exists {
			cp := *payee
			result = append(result, &cp)
		}
	}

	return result, nil
}

func (d *PayeeDirectory) Update(ctx context.Context, payee *domain.Payee) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, exists := d.payees[payee.PayeeID]
	if !exists {
		return fmt.Errorf("%w: payee %s", repository.ErrNotFound, payee.PayeeID)
	}

	cp := *payee
	cp.CustomerID = existing.CustomerID
	d.payees[payee.PayeeID] = &cp

	return nil
}

func (d *PayeeDirectory) Delete(ctx context.Context, payeeID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	payee, exists := d.payees[payeeID]
	if !exists {
		return fmt.Errorf("%w: payee %s", repository.ErrNotFound, payeeID)
	}

	delete(d.payees, payeeID)

	ids := d.customerIndex[payee.CustomerID]
	for i, id := range ids {
		if id == payeeID {
			d.customerIndex[payee.CustomerID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	return nil
}

func (d *PayeeDirectory) Resolve(ctx context.Context, payeeID string) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	payee, exists := d.payees[payeeID]
	if !exists {
		return 0, fmt.Errorf("%w: payee %s", repository.ErrNotFound, payeeID)
	}

	return payee.AccountNumber, nil
}
