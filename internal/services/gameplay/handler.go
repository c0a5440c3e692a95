// Package gameplay turns host signals (join, leave, resource yield,
// death) into profile, progression and economy operations. Every method
// is meant to run on the main loop.
package gameplay

import (
	"context"
	"log/slog"
	"math"
	"strconv"

	"github.com/panda19/prisonscore/internal/economy"
	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/policy"
	"github.com/panda19/prisonscore/internal/services/profiles"
	"github.com/panda19/prisonscore/internal/services/progression"
)

// LevelUpGuard may suppress level-up feedback by returning false. The
// level change itself always stands.
type LevelUpGuard func(id model.ProfileID, change model.LevelUp) bool

// YieldResult describes the reward for one resource break
type YieldResult struct {
	Resource string
	Location string
	Mineable bool
	XP       float64
	Money    float64
	Progress model.ProgressResult
}

// Handler wires the services together for host events
type Handler struct {
	profiles *profiles.Manager
	machine  *progression.Machine
	policy   *policy.Service
	economy  *economy.Service
	feedback Feedback
	logger   *slog.Logger

	debugXP      bool
	levelUpGuard LevelUpGuard
}

// New creates a Handler
func New(
	profileManager *profiles.Manager,
	machine *progression.Machine,
	pol *policy.Service,
	econ *economy.Service,
	feedback Feedback,
	debugXP bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		profiles: profileManager,
		machine:  machine,
		policy:   pol,
		economy:  econ,
		feedback: feedback,
		debugXP:  debugXP,
		logger:   logger,
	}
}

// SetLevelUpGuard installs a hook that can silence level-up feedback
func (h *Handler) SetLevelUpGuard(g LevelUpGuard) {
	h.levelUpGuard = g
}

// OnJoin loads the player's profile and calls onReady on the main loop
// once it is cached.
func (h *Handler) OnJoin(ctx context.Context, id model.ProfileID, name string, onReady func(*model.Profile)) {
	h.profiles.GetOrLoad(id, name, func(p *model.Profile) {
		snap := p.Snapshot()
		h.logger.Info("profile ready",
			slog.String("profile_id", id.String()),
			slog.String("name", snap.DisplayName),
			slog.Int("level", snap.Level),
		)
		h.feedback.Message(id, h.policy.Message("welcome", map[string]string{"name": snap.DisplayName}))
		h.feedback.Message(id, h.policy.Message("welcome-stats", map[string]string{
			"level": strconv.Itoa(snap.Level),
			"xp":    strconv.FormatFloat(snap.Experience, 'f', 1, 64),
		}))

		h.machine.SyncDisplayProgress(p)
		h.machine.Revalidate(ctx, p, func(res model.ProgressResult) {
			h.announce(id, res)
		})
		if onReady != nil {
			onReady(p)
		}
	})
}

// OnLeave evicts the profile and schedules its final save
func (h *Handler) OnLeave(id model.ProfileID) error {
	return h.profiles.RemoveAndSave(id)
}

// OnResourceYield rewards an online player for breaking a resource
func (h *Handler) OnResourceYield(ctx context.Context, id model.ProfileID, kind, location string) (YieldResult, error) {
	p := h.profiles.Get(id)
	if p == nil {
		return YieldResult{}, model.ErrProfileNotCached
	}

	res := YieldResult{Resource: kind, Location: location}
	reward, ok := h.policy.BlockReward(kind)
	if !ok {
		return res, nil
	}
	res.Mineable = true

	prestige := p.Snapshot().Prestige
	res.XP = h.policy.ScaleBlockXP(reward.XP, prestige)
	res.Money = h.policy.ScaleBlockMoney(reward.Money, prestige)

	res.Progress = h.addExperience(ctx, p, res.XP)
	if res.Money > 0 && h.economy.Available() {
		_ = h.economy.Deposit(ctx, id, res.Money)
	}

	if h.debugXP {
		h.feedback.Message(id, h.policy.Message("block-reward-debug", map[string]string{
			"xp":    formatAmount(res.XP),
			"money": formatAmount(res.Money),
		}))
	}
	return res, nil
}

// OnDeath applies the configured experience loss. Experience never drops
// below zero and the level never goes down.
func (h *Handler) OnDeath(ctx context.Context, id model.ProfileID) (float64, error) {
	p := h.profiles.Get(id)
	if p == nil {
		return 0, model.ErrProfileNotCached
	}
	loss := h.policy.XPLossOnDeath(p.Snapshot().Level)
	removed := h.machine.RemoveExperience(p, loss)
	if removed > 0 {
		h.feedback.Message(id, h.policy.Message("death-xp-loss", map[string]string{
			"amount": formatAmount(removed),
		}))
	}
	return removed, nil
}

// GrantExperience credits experience directly, as an operator would
func (h *Handler) GrantExperience(ctx context.Context, id model.ProfileID, amount float64) (model.ProgressResult, error) {
	if amount <= 0 {
		return model.ProgressResult{}, model.ErrInvalidAmount
	}
	p := h.profiles.Get(id)
	if p == nil {
		return model.ProgressResult{}, model.ErrProfileNotCached
	}
	return h.addExperience(ctx, p, amount), nil
}

// ReloadPolicy re-reads the policy files and re-checks every online
// profile against the new curve.
func (h *Handler) ReloadPolicy(ctx context.Context) error {
	err := h.policy.Reload()
	for _, p := range h.profiles.List() {
		id := p.ID()
		h.machine.SyncDisplayProgress(p)
		h.machine.Revalidate(ctx, p, func(res model.ProgressResult) {
			h.announce(id, res)
		})
	}
	return err
}

func (h *Handler) addExperience(ctx context.Context, p *model.Profile, amount float64) model.ProgressResult {
	before := p.Snapshot()
	res := h.machine.AddExperience(ctx, p, amount)
	h.announce(p.ID(), res)

	if h.debugXP {
		after := p.Snapshot()
		h.feedback.Message(p.ID(), h.policy.Message("xp-gain-debug", map[string]string{
			"amount":   formatAmount(amount),
			"oldXp":    formatAmount(before.Experience),
			"newXp":    formatAmount(after.Experience),
			"oldLevel": strconv.Itoa(before.Level),
			"newLevel": strconv.Itoa(after.Level),
		}))
	}
	return res
}

func (h *Handler) announce(id model.ProfileID, res model.ProgressResult) {
	effects := h.policy.Effects()

	if res.LevelUp != nil && (h.levelUpGuard == nil || h.levelUpGuard(id, *res.LevelUp)) {
		h.feedback.Message(id, h.policy.Message("level-up", map[string]string{
			"level": strconv.Itoa(res.LevelUp.NewLevel),
		}))
		if effects.LevelUpSound != "" {
			h.feedback.Sound(id, effects.LevelUpSound)
		}
	}

	if res.Prestige == model.OutcomeApplied && res.PrestigeDetails != nil {
		h.feedback.Message(id, h.policy.Message("prestige.title", nil))
		h.feedback.Message(id, h.policy.Message("prestige.subtitle", map[string]string{
			"prestige": strconv.Itoa(res.PrestigeDetails.NewPrestige),
		}))
		h.feedback.Message(id, h.policy.Message("prestige.reward", map[string]string{
			"multiplier": formatAmount(res.PrestigeDetails.NewRewardMultiplier),
		}))
		if effects.PrestigeSound != "" {
			h.feedback.Sound(id, effects.PrestigeSound)
		}
	}
}

// formatAmount rounds to at most two decimals and drops trailing zeros
func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
