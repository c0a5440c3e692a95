package economy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/panda19/prisonscore/internal/economy"
	"github.com/panda19/prisonscore/internal/economy/memory"
	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/testutil"
)

type lookup map[model.ProfileID]*model.Profile

func (l lookup) Get(id model.ProfileID) *model.Profile { return l[id] }

type brokenLedger struct{}

func (brokenLedger) Deposit(context.Context, model.ProfileID, float64) error {
	return errors.New("ledger offline")
}

func (brokenLedger) Withdraw(context.Context, model.ProfileID, float64) error {
	return errors.New("ledger offline")
}

func (brokenLedger) Balance(context.Context, model.ProfileID) (float64, error) {
	return 0, errors.New("ledger offline")
}

type ServiceSuite struct {
	suite.Suite
	ledger  *memory.Ledger
	profile *model.Profile
	service *economy.Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ledger = memory.New()
	s.profile = model.NewProfile(model.NewRecord(uuid.New(), "Miner", time.Now()))
	s.service = economy.NewService(s.ledger, lookup{s.profile.ID(): s.profile}, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestDepositRefreshesMirror() {
	s.Require().NoError(s.service.Deposit(s.ctx, s.profile.ID(), 12.5))
	s.Require().NoError(s.service.Deposit(s.ctx, s.profile.ID(), 7.5))

	s.Equal(20.0, s.service.Balance(s.ctx, s.profile.ID()))
	s.Equal(20.0, s.profile.Snapshot().BalanceMirror)
}

func (s *ServiceSuite) TestNonPositiveAmountsIgnored() {
	s.NoError(s.service.Deposit(s.ctx, s.profile.ID(), 0))
	s.NoError(s.service.Deposit(s.ctx, s.profile.ID(), -5))
	s.NoError(s.service.Withdraw(s.ctx, s.profile.ID(), -5))

	s.Zero(s.service.Balance(s.ctx, s.profile.ID()))
}

func (s *ServiceSuite) TestWithdraw() {
	s.Require().NoError(s.service.Deposit(s.ctx, s.profile.ID(), 10))

	s.Require().NoError(s.service.Withdraw(s.ctx, s.profile.ID(), 4))
	s.Equal(6.0, s.profile.Snapshot().BalanceMirror)

	s.ErrorIs(s.service.Withdraw(s.ctx, s.profile.ID(), 100), model.ErrInsufficientFunds)
	s.Equal(6.0, s.service.Balance(s.ctx, s.profile.ID()))
}

func (s *ServiceSuite) TestResetBalance() {
	s.Require().NoError(s.service.Deposit(s.ctx, s.profile.ID(), 99))

	s.Require().NoError(s.service.ResetBalance(s.ctx, s.profile.ID()))

	s.Zero(s.service.Balance(s.ctx, s.profile.ID()))
	s.Zero(s.profile.Snapshot().BalanceMirror)
}

func (s *ServiceSuite) TestOfflineProfileStillCredited() {
	id := uuid.New()
	s.Require().NoError(s.service.Deposit(s.ctx, id, 3))
	s.Equal(3.0, s.service.Balance(s.ctx, id))
}

func (s *ServiceSuite) TestNoLedger() {
	svc := economy.NewService(nil, nil, testutil.NopLogger())

	s.False(svc.Available())
	s.ErrorIs(svc.Deposit(s.ctx, s.profile.ID(), 1), model.ErrEconomyUnavailable)
	s.ErrorIs(svc.ResetBalance(s.ctx, s.profile.ID()), model.ErrEconomyUnavailable)
	s.Zero(svc.Balance(s.ctx, s.profile.ID()))
}

func (s *ServiceSuite) TestLedgerFailuresAreContained() {
	svc := economy.NewService(brokenLedger{}, lookup{s.profile.ID(): s.profile}, testutil.NopLogger())
	s.profile.Lock()
	s.profile.SetBalanceMirror(42)
	s.profile.Unlock()

	s.Error(svc.Deposit(s.ctx, s.profile.ID(), 1))
	s.Error(svc.ResetBalance(s.ctx, s.profile.ID()))
	s.Zero(svc.Balance(s.ctx, s.profile.ID()))
	s.Equal(42.0, s.profile.Snapshot().BalanceMirror, "mirror only changes after a successful mutation")
}
