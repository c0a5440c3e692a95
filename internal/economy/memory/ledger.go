package memory

import (
	"context"
	"sync"

	"github.com/panda19/prisonscore/internal/economy"
	"github.com/panda19/prisonscore/internal/model"
)

// Ledger keeps balances in process memory
type Ledger struct {
	mu       sync.Mutex
	balances map[model.ProfileID]float64
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{balances: make(map[model.ProfileID]float64)}
}

// Ensure Ledger implements the interface
var _ economy.Ledger = (*Ledger)(nil)

func (l *Ledger) Deposit(ctx context.Context, id model.ProfileID, amount float64) error {
	if amount <= 0 {
		return model.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[id] += amount
	return nil
}

func (l *Ledger) Withdraw(ctx context.Context, id model.ProfileID, amount float64) error {
	if amount <= 0 {
		return model.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[id] < amount {
		return model.ErrInsufficientFunds
	}
	l.balances[id] -= amount
	return nil
}

func (l *Ledger) Balance(ctx context.Context, id model.ProfileID) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[id], nil
}
