package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/panda19/prisonscore/internal/economy"
	"github.com/panda19/prisonscore/internal/model"
)

// withdrawScript debits only when the balance covers the amount.
// A nil reply means insufficient funds.
var withdrawScript = redis.NewScript(`
local bal = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
if bal < tonumber(ARGV[2]) then
	return false
end
return redis.call('HINCRBYFLOAT', KEYS[1], ARGV[1], ARGV[3])
`)

// Ledger stores balances in one Redis hash of profile id to balance
type Ledger struct {
	client *redis.Client
	key    string
}

// New creates a ledger keeping its hash at key on an existing client
func New(client *redis.Client, key string) *Ledger {
	return &Ledger{client: client, key: key}
}

// Ensure Ledger implements the interface
var _ economy.Ledger = (*Ledger)(nil)

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (l *Ledger) Deposit(ctx context.Context, id model.ProfileID, amount float64) error {
	if amount <= 0 {
		return model.ErrInvalidAmount
	}
	return l.client.HIncrByFloat(ctx, l.key, id.String(), amount).Err()
}

func (l *Ledger) Withdraw(ctx context.Context, id model.ProfileID, amount float64) error {
	if amount <= 0 {
		return model.ErrInvalidAmount
	}
	err := withdrawScript.Run(ctx, l.client, []string{l.key},
		id.String(), formatAmount(amount), formatAmount(-amount),
	).Err()
	if errors.Is(err, redis.Nil) {
		return model.ErrInsufficientFunds
	}
	return err
}

func (l *Ledger) Balance(ctx context.Context, id model.ProfileID) (float64, error) {
	val, err := l.client.HGet(ctx, l.key, id.String()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	bal, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance: %w", err)
	}
	return bal, nil
}
