// Package policy owns the tunable progression rules: the experience curve,
// prestige rules, reward formulas, block rewards and message templates.
package policy

import (
	"errors"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/panda19/prisonscore/internal/formula"
)

// Service resolves policy questions against the current snapshot
type Service struct {
	logger          *slog.Logger
	eval            *formula.Evaluator
	progressionPath string
	rewardsPath     string

	snap atomic.Pointer[Snapshot]
}

// New creates a Service reading from the given files. The built-in
// snapshot is active until Load is called.
func New(logger *slog.Logger, eval *formula.Evaluator, progressionPath, rewardsPath string) *Service {
	s := &Service{
		logger:          logger,
		eval:            eval,
		progressionPath: progressionPath,
		rewardsPath:     rewardsPath,
	}
	s.snap.Store(Default())
	return s
}

// NewWithSnapshot creates a file-less Service (for testing)
func NewWithSnapshot(logger *slog.Logger, eval *formula.Evaluator, snap *Snapshot) *Service {
	s := &Service{logger: logger, eval: eval}
	s.snap.Store(snap)
	return s
}

// Current returns the active snapshot. It must not be mutated.
func (s *Service) Current() *Snapshot {
	return s.snap.Load()
}

// Load reads both policy files, seeding missing ones from the built-in
// defaults, and swaps in the result. Problems are logged and returned but
// never leave the service without a usable snapshot: sections that fail
// to parse keep their defaults.
func (s *Service) Load() error {
	snap := Default()
	var errs []error

	if s.progressionPath != "" {
		if err := s.loadFile(s.progressionPath, defaultProgressionYAML, snap, applyProgression); err != nil {
			errs = append(errs, err)
		}
	}
	if s.rewardsPath != "" {
		if err := s.loadFile(s.rewardsPath, defaultRewardsYAML, snap, applyRewards); err != nil {
			errs = append(errs, err)
		}
	}

	s.validateFormulas(snap)

	if snap.ConfigVersion < CurrentConfigVersion {
		s.logger.Info("old progression config detected",
			slog.Int("found_version", snap.ConfigVersion),
			slog.Int("current_version", CurrentConfigVersion),
		)
	}

	s.snap.Store(snap)
	return errors.Join(errs...)
}

// Reload is Load under the name operators know it by
func (s *Service) Reload() error {
	err := s.Load()
	s.logger.Info("policy reloaded", slog.Bool("clean", err == nil))
	return err
}

func (s *Service) loadFile(path string, fallback []byte, snap *Snapshot, apply func(*Snapshot, []byte) error) error {
	if err := ensureFile(path, fallback); err != nil {
		s.logger.Warn("could not write default policy file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("could not read policy file, using defaults",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		data = fallback
	}

	if err := apply(snap, data); err != nil {
		s.logger.Error("invalid policy file, using defaults",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		if fbErr := apply(snap, fallback); fbErr != nil {
			s.logger.Error("built-in policy is invalid", slog.String("error", fbErr.Error()))
		}
		return err
	}
	return nil
}

// validateFormulas logs expressions that will always evaluate to zero
func (s *Service) validateFormulas(snap *Snapshot) {
	for name, expr := range snap.Formulas {
		if err := formula.Check(expr, formula.Neutral()); err != nil {
			s.logger.Warn("formula will not evaluate",
				slog.String("formula", name),
				slog.String("expression", expr),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *Service) vars(snap *Snapshot) formula.Variables {
	return formula.Neutral().With(formula.Variables{
		formula.VarBase:       snap.Levels.BaseXP,
		formula.VarMultiplier: snap.Levels.XPMultiplier,
	})
}

// XPToReachLevel is the experience needed to advance past level
func (s *Service) XPToReachLevel(level int) float64 {
	snap := s.Current()
	vars := s.vars(snap)
	vars[formula.VarLevel] = float64(level)
	return s.eval.Evaluate(snap.Formula(FormulaLevelXP), vars)
}

// ScaleBlockXP applies prestige scaling to a resource's base experience
func (s *Service) ScaleBlockXP(rawXP float64, prestige int) float64 {
	snap := s.Current()
	vars := s.vars(snap)
	vars[formula.VarPrestige] = float64(prestige)
	vars[formula.VarBlockXP] = rawXP
	return s.eval.Evaluate(snap.Formula(FormulaBlockXP), vars)
}

// ScaleBlockMoney applies prestige scaling to a resource's base payout
func (s *Service) ScaleBlockMoney(rawMoney float64, prestige int) float64 {
	snap := s.Current()
	vars := s.vars(snap)
	vars[formula.VarPrestige] = float64(prestige)
	vars[formula.VarBaseMoney] = rawMoney
	return s.eval.Evaluate(snap.Formula(FormulaMoney), vars)
}

// PrestigeReward computes the reward multiplier after reaching prestige.
// The current multiplier is visible to the formula as both base and
// rewardMultiplier.
func (s *Service) PrestigeReward(currentMultiplier float64, prestige int) float64 {
	snap := s.Current()
	vars := s.vars(snap)
	vars[formula.VarPrestige] = float64(prestige)
	vars[formula.VarBase] = currentMultiplier
	vars[formula.VarRewardMultiplier] = currentMultiplier
	return s.eval.Evaluate(snap.Formula(FormulaPrestigeReward), vars)
}

// XPLossOnDeath is the experience a player at level loses on death
func (s *Service) XPLossOnDeath(level int) float64 {
	snap := s.Current()
	vars := s.vars(snap)
	vars[formula.VarLevel] = float64(level)
	return s.eval.Evaluate(snap.Formula(FormulaDeathXPLoss), vars)
}

// Rules returns the active prestige rules
func (s *Service) Rules() PrestigeRules {
	return s.Current().Prestige
}

// Effects returns the active sound effects
func (s *Service) Effects() Effects {
	return s.Current().Effects
}

// BlockReward returns the base reward for a resource kind and whether
// the kind yields anything at all.
func (s *Service) BlockReward(kind string) (Reward, bool) {
	table := s.Current().Rewards
	if !table.Mineable(kind) {
		return Reward{}, false
	}
	return table.Lookup(kind), true
}

// Message renders a message template from the active snapshot
func (s *Service) Message(key string, placeholders map[string]string) string {
	return s.Current().Message(key, placeholders)
}
