// Package progression applies experience gains to profiles: chained
// level-ups, prestige transitions and the derived progress ratio.
package progression

import (
	"context"
	"log/slog"

	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/policy"
)

// SafetyLimit caps level-ups per gain so a broken curve cannot spin forever
const SafetyLimit = 1000

// Policy is the subset of the policy service the machine consults
type Policy interface {
	XPToReachLevel(level int) float64
	PrestigeReward(currentMultiplier float64, prestige int) float64
	Rules() policy.PrestigeRules
}

// BalanceResetter zeroes a player's balance on prestige
type BalanceResetter interface {
	Available() bool
	ResetBalance(ctx context.Context, id model.ProfileID) error
}

// Poster runs callbacks on the main loop
type Poster interface {
	Post(fn func())
}

// ProfileLookup finds an online profile
type ProfileLookup interface {
	Get(id model.ProfileID) *model.Profile
}

// PrestigeGuard may veto a prestige by returning false. It runs with the
// profile locked and must not lock it again.
type PrestigeGuard func(intent model.PrestigeIntent) bool

// Machine is the progression state machine
type Machine struct {
	policy   Policy
	economy  BalanceResetter
	loop     Poster
	profiles ProfileLookup
	guard    PrestigeGuard
	logger   *slog.Logger
}

// New creates a Machine. With a nil or unavailable economy balances are
// never reset.
func New(pol Policy, econ BalanceResetter, loop Poster, profiles ProfileLookup, logger *slog.Logger) *Machine {
	return &Machine{
		policy:   pol,
		economy:  econ,
		loop:     loop,
		profiles: profiles,
		logger:   logger,
	}
}

// SetPrestigeGuard installs a veto hook for prestiges
func (m *Machine) SetPrestigeGuard(g PrestigeGuard) {
	m.guard = g
}

// transition is what a locked mutation produced
type transition struct {
	prestige       model.Outcome
	details        *model.PrestigeCompleted
	resetBalance   bool
	safetyLimitHit bool
}

// AddExperience credits amount and resolves any level-ups it causes.
// A prestige reached mid-chain ends the chain; experience left over at
// that point is dropped when the rules reset experience.
func (m *Machine) AddExperience(ctx context.Context, p *model.Profile, amount float64) model.ProgressResult {
	if amount <= 0 {
		return model.ProgressResult{Prestige: model.OutcomeSkipped}
	}

	p.Lock()
	oldLevel := p.Level()
	p.SetExperience(p.Experience() + amount)
	t := m.levelUpLocked(p)
	m.syncLocked(p)
	newLevel := p.Level()
	p.Unlock()

	m.finish(ctx, p.ID(), t)

	res := model.ProgressResult{
		Gained:          amount,
		Prestige:        t.prestige,
		PrestigeDetails: t.details,
		SafetyLimitHit:  t.safetyLimitHit,
	}
	if newLevel > oldLevel {
		res.LevelUp = &model.LevelUp{OldLevel: oldLevel, NewLevel: newLevel}
	}
	return res
}

// RemoveExperience takes up to amount away without ever lowering the
// level, returning how much was actually removed.
func (m *Machine) RemoveExperience(p *model.Profile, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	p.Lock()
	defer p.Unlock()
	removed := min(amount, p.Experience())
	p.SetExperience(p.Experience() - removed)
	m.syncLocked(p)
	return removed
}

// Eligible reports whether the profile may prestige right now
func (m *Machine) Eligible(p *model.Profile) bool {
	p.Lock()
	defer p.Unlock()
	return m.eligibleLocked(p)
}

func (m *Machine) eligibleLocked(p *model.Profile) bool {
	rules := m.policy.Rules()
	return p.Level() >= rules.RequiredLevel && p.Prestige() < rules.MaxPrestige
}

// AttemptPrestige re-checks eligibility, consults the guard, and applies
// the prestige if allowed.
func (m *Machine) AttemptPrestige(ctx context.Context, p *model.Profile) (model.Outcome, *model.PrestigeCompleted) {
	p.Lock()
	t := m.prestigeLocked(p)
	m.syncLocked(p)
	p.Unlock()

	m.finish(ctx, p.ID(), t)
	return t.prestige, t.details
}

// SyncDisplayProgress recomputes the progress ratio shown to the player
func (m *Machine) SyncDisplayProgress(p *model.Profile) float64 {
	p.Lock()
	defer p.Unlock()
	return m.syncLocked(p)
}

// Revalidate re-runs the level-up chain on the main loop if the profile
// already holds enough experience for its next level, as happens after a
// curve change or a load. onResult, if set, runs on the loop afterwards.
func (m *Machine) Revalidate(ctx context.Context, p *model.Profile, onResult func(model.ProgressResult)) bool {
	p.Lock()
	needed := m.policy.XPToReachLevel(p.Level())
	due := p.Experience() >= needed
	p.Unlock()
	if !due {
		return false
	}

	id := p.ID()
	m.loop.Post(func() {
		current := m.profiles.Get(id)
		if current == nil {
			return
		}
		res := m.recheck(ctx, current)
		if onResult != nil {
			onResult(res)
		}
	})
	return true
}

func (m *Machine) recheck(ctx context.Context, p *model.Profile) model.ProgressResult {
	p.Lock()
	oldLevel := p.Level()
	t := m.levelUpLocked(p)
	m.syncLocked(p)
	newLevel := p.Level()
	p.Unlock()

	m.finish(ctx, p.ID(), t)

	res := model.ProgressResult{
		Prestige:        t.prestige,
		PrestigeDetails: t.details,
		SafetyLimitHit:  t.safetyLimitHit,
	}
	if newLevel > oldLevel {
		res.LevelUp = &model.LevelUp{OldLevel: oldLevel, NewLevel: newLevel}
	}
	return res
}

func (m *Machine) levelUpLocked(p *model.Profile) transition {
	t := transition{prestige: model.OutcomeSkipped}
	needed := m.policy.XPToReachLevel(p.Level())

	for i := 0; p.Experience() >= needed; i++ {
		if i >= SafetyLimit {
			t.safetyLimitHit = true
			m.logger.Warn("level-up chain hit safety limit",
				slog.String("profile_id", p.ID().String()),
				slog.String("name", p.DisplayName()),
				slog.Int("limit", SafetyLimit),
				slog.Int("level", p.Level()),
				slog.Float64("experience", p.Experience()),
			)
			break
		}

		p.SetExperience(p.Experience() - needed)
		p.SetLevel(p.Level() + 1)
		m.syncLocked(p)

		if m.eligibleLocked(p) {
			pt := m.prestigeLocked(p)
			t.prestige, t.details, t.resetBalance = pt.prestige, pt.details, pt.resetBalance
			break
		}
		needed = m.policy.XPToReachLevel(p.Level())
	}
	return t
}

func (m *Machine) prestigeLocked(p *model.Profile) transition {
	if !m.eligibleLocked(p) {
		return transition{prestige: model.OutcomeSkipped}
	}

	intent := model.PrestigeIntent{
		ProfileID:    p.ID(),
		FromPrestige: p.Prestige(),
		ToPrestige:   p.Prestige() + 1,
	}
	if m.guard != nil && !m.guard(intent) {
		m.logger.Info("prestige vetoed", slog.String("profile_id", p.ID().String()))
		return transition{prestige: model.OutcomeVetoed}
	}

	rules := m.policy.Rules()
	p.SetPrestige(intent.ToPrestige)
	if rules.ResetXP {
		p.SetExperience(0)
	}
	if rules.LevelReset >= 0 {
		p.SetLevel(max(1, rules.LevelReset))
	}

	oldMultiplier := p.RewardMultiplier()
	newMultiplier := m.policy.PrestigeReward(oldMultiplier, p.Prestige())
	p.SetRewardMultiplier(newMultiplier)

	m.logger.Info("prestige applied",
		slog.String("profile_id", p.ID().String()),
		slog.Int("prestige", p.Prestige()),
		slog.Float64("reward_multiplier", newMultiplier),
	)

	return transition{
		prestige: model.OutcomeApplied,
		details: &model.PrestigeCompleted{
			ProfileID:           p.ID(),
			NewPrestige:         p.Prestige(),
			OldRewardMultiplier: oldMultiplier,
			NewRewardMultiplier: newMultiplier,
		},
		resetBalance: rules.ResetBalance,
	}
}

// finish performs the side effects of a transition once the profile lock
// is released; the economy locks the profile to refresh its mirror.
func (m *Machine) finish(ctx context.Context, id model.ProfileID, t transition) {
	if !t.resetBalance || m.economy == nil || !m.economy.Available() {
		return
	}
	if err := m.economy.ResetBalance(ctx, id); err != nil {
		m.logger.Warn("prestige balance reset failed",
			slog.String("profile_id", id.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (m *Machine) syncLocked(p *model.Profile) float64 {
	needed := m.policy.XPToReachLevel(p.Level())
	ratio := 0.0
	if needed > 0 {
		ratio = min(max(p.Experience()/needed, 0), 1)
	}
	p.SetProgress(ratio)
	return ratio
}
