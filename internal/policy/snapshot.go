package policy

import (
	"strings"
)

// CurrentConfigVersion is the progression file layout this build writes
const CurrentConfigVersion = 2

// Formula names looked up in Snapshot.Formulas
const (
	FormulaLevelXP        = "level-xp"
	FormulaBlockXP        = "block-xp"
	FormulaMoney          = "money"
	FormulaPrestigeReward = "prestige-reward"
	FormulaDeathXPLoss    = "death-xp-loss"
)

// DefaultFormulas are used when a formula is missing from the file
var DefaultFormulas = map[string]string{
	FormulaLevelXP:        "base * (multiplier ^ (level - 1))",
	FormulaBlockXP:        "blockXp * (1 + (prestige * 0.05))",
	FormulaMoney:          "baseMoney * (1 + (prestige * 0.1))",
	FormulaPrestigeReward: "base * (1 + (prestige * 0.25))",
	FormulaDeathXPLoss:    "level * 2",
}

// Levels holds the experience curve constants
type Levels struct {
	BaseXP       float64 `yaml:"base-xp"`
	XPMultiplier float64 `yaml:"xp-multiplier"`
}

// PrestigeRules controls when and how a prestige happens
type PrestigeRules struct {
	RequiredLevel    int     `yaml:"required-level"`
	ResetBalance     bool    `yaml:"reset-balance"`
	ResetXP          bool    `yaml:"reset-xp"`
	LevelReset       int     `yaml:"level-reset"` // negative keeps the current level
	RewardMultiplier float64 `yaml:"reward-multiplier"`
	MaxPrestige      int     `yaml:"max-prestige"`
}

// Effects names the sounds played on transitions. Empty means none.
type Effects struct {
	LevelUpSound  string
	PrestigeSound string
}

// Reward is the base payout for one resource
type Reward struct {
	XP    float64
	Money float64
}

// RewardTable maps resource kinds to base rewards
type RewardTable struct {
	Default     Reward
	NonMineable map[string]bool
	Resources   map[string]Reward
}

// Lookup returns the reward for kind, falling back to the default
func (t RewardTable) Lookup(kind string) Reward {
	if r, ok := t.Resources[normalizeKind(kind)]; ok {
		return r
	}
	return t.Default
}

// Mineable reports whether kind yields rewards at all
func (t RewardTable) Mineable(kind string) bool {
	k := normalizeKind(kind)
	return k != "" && !t.NonMineable[k]
}

func normalizeKind(kind string) string {
	return strings.ToUpper(strings.TrimSpace(kind))
}

// Snapshot is an immutable view of every tunable. Reload swaps it whole.
type Snapshot struct {
	ConfigVersion int
	Levels        Levels
	Prestige      PrestigeRules
	Formulas      map[string]string
	Messages      map[string]string
	Effects       Effects
	Rewards       RewardTable
}

// Default returns the built-in snapshot
func Default() *Snapshot {
	formulas := make(map[string]string, len(DefaultFormulas))
	for k, v := range DefaultFormulas {
		formulas[k] = v
	}
	return &Snapshot{
		ConfigVersion: CurrentConfigVersion,
		Levels: Levels{
			BaseXP:       100.0,
			XPMultiplier: 1.15,
		},
		Prestige: PrestigeRules{
			RequiredLevel:    100,
			ResetBalance:     true,
			ResetXP:          true,
			LevelReset:       1,
			RewardMultiplier: 1.25,
			MaxPrestige:      999,
		},
		Formulas: formulas,
		Messages: map[string]string{},
		Rewards: RewardTable{
			Default:     Reward{XP: 5.0, Money: 0.5},
			NonMineable: map[string]bool{"AIR": true, "BEDROCK": true},
			Resources:   map[string]Reward{},
		},
	}
}

// Formula returns the named expression, or its built-in default
func (s *Snapshot) Formula(name string) string {
	if f, ok := s.Formulas[name]; ok && strings.TrimSpace(f) != "" {
		return f
	}
	return DefaultFormulas[name]
}

// Message renders a template. A key missing as written is retried with
// only its last dotted segment; failing that the key itself is returned.
func (s *Snapshot) Message(key string, placeholders map[string]string) string {
	tmpl, ok := s.Messages[key]
	if !ok {
		if i := strings.LastIndex(key, "."); i >= 0 {
			tmpl, ok = s.Messages[key[i+1:]]
		}
	}
	if !ok {
		return key
	}
	if len(placeholders) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(placeholders)*2)
	for name, val := range placeholders {
		pairs = append(pairs, "{"+name+"}", val)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
