// Package economy moves money through the external ledger and keeps each
// online profile's balance mirror in step with it.
package economy

import (
	"context"
	"log/slog"

	"github.com/panda19/prisonscore/internal/model"
)

// ProfileLookup finds an online profile without touching storage
type ProfileLookup interface {
	Get(id model.ProfileID) *model.Profile
}

// Service wraps a Ledger. With no ledger configured every operation is a
// no-op returning model.ErrEconomyUnavailable.
type Service struct {
	ledger   Ledger
	profiles ProfileLookup
	logger   *slog.Logger
}

// NewService creates an economy service. ledger may be nil.
func NewService(ledger Ledger, profiles ProfileLookup, logger *slog.Logger) *Service {
	if ledger == nil {
		logger.Warn("no economy configured, money rewards and balance resets are disabled")
	}
	return &Service{ledger: ledger, profiles: profiles, logger: logger}
}

// Available reports whether a ledger is configured
func (s *Service) Available() bool {
	return s.ledger != nil
}

// Deposit credits amount. Non-positive amounts are ignored.
func (s *Service) Deposit(ctx context.Context, id model.ProfileID, amount float64) error {
	if amount <= 0 {
		return nil
	}
	if s.ledger == nil {
		return model.ErrEconomyUnavailable
	}
	if err := s.ledger.Deposit(ctx, id, amount); err != nil {
		s.logger.Warn("deposit failed",
			slog.String("profile_id", id.String()),
			slog.Float64("amount", amount),
			slog.String("error", err.Error()),
		)
		return err
	}
	s.refreshMirror(ctx, id)
	return nil
}

// Withdraw debits amount. Non-positive amounts are ignored.
func (s *Service) Withdraw(ctx context.Context, id model.ProfileID, amount float64) error {
	if amount <= 0 {
		return nil
	}
	if s.ledger == nil {
		return model.ErrEconomyUnavailable
	}
	if err := s.ledger.Withdraw(ctx, id, amount); err != nil {
		s.logger.Warn("withdraw failed",
			slog.String("profile_id", id.String()),
			slog.Float64("amount", amount),
			slog.String("error", err.Error()),
		)
		return err
	}
	s.refreshMirror(ctx, id)
	return nil
}

// Balance returns the ledger balance, or 0 when it cannot be read
func (s *Service) Balance(ctx context.Context, id model.ProfileID) float64 {
	if s.ledger == nil {
		return 0
	}
	bal, err := s.ledger.Balance(ctx, id)
	if err != nil {
		s.logger.Warn("balance lookup failed",
			slog.String("profile_id", id.String()),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return bal
}

// ResetBalance withdraws whatever the profile holds and zeroes its mirror
func (s *Service) ResetBalance(ctx context.Context, id model.ProfileID) error {
	if s.ledger == nil {
		return model.ErrEconomyUnavailable
	}
	bal, err := s.ledger.Balance(ctx, id)
	if err != nil {
		s.logger.Warn("balance reset failed",
			slog.String("profile_id", id.String()),
			slog.String("error", err.Error()),
		)
		return err
	}
	if bal > 0 {
		if err := s.ledger.Withdraw(ctx, id, bal); err != nil {
			s.logger.Warn("balance reset failed",
				slog.String("profile_id", id.String()),
				slog.String("error", err.Error()),
			)
			return err
		}
		s.logger.Debug("balance reset",
			slog.String("profile_id", id.String()),
			slog.Float64("removed", bal),
		)
	}
	s.setMirror(id, 0)
	return nil
}

func (s *Service) refreshMirror(ctx context.Context, id model.ProfileID) {
	if s.profiles == nil || s.profiles.Get(id) == nil {
		return
	}
	s.setMirror(id, s.Balance(ctx, id))
}

func (s *Service) setMirror(id model.ProfileID, balance float64) {
	if s.profiles == nil {
		return
	}
	p := s.profiles.Get(id)
	if p == nil {
		return
	}
	p.Lock()
	p.SetBalanceMirror(balance)
	p.Unlock()
}
