package economy

import (
	"context"

	"github.com/panda19/prisonscore/internal/model"
)

// Ledger is the authoritative balance store. Amounts are always positive.
type Ledger interface {
	Deposit(ctx context.Context, id model.ProfileID, amount float64) error
	// Withdraw returns model.ErrInsufficientFunds rather than going negative.
	Withdraw(ctx context.Context, id model.ProfileID, amount float64) error
	Balance(ctx context.Context, id model.ProfileID) (float64, error)
}
