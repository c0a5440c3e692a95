package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/progression.yml
var defaultProgressionYAML []byte

//go:embed defaults/blockrewards.yml
var defaultRewardsYAML []byte

type soundSection struct {
	Sound string `yaml:"sound"`
}

type progressionFile struct {
	ConfigVersion int               `yaml:"config-version"`
	Levels        Levels            `yaml:"levels"`
	Prestige      PrestigeRules     `yaml:"prestige"`
	Formulas      map[string]string `yaml:"formulas"`
	Messages      map[string]any    `yaml:"messages"`
	Effects       struct {
		LevelUp  soundSection `yaml:"level-up"`
		Prestige soundSection `yaml:"prestige"`
	} `yaml:"effects"`
}

type rewardEntry struct {
	XP    *float64 `yaml:"xp"`
	Money *float64 `yaml:"money"`
}

type rewardsFile struct {
	Default struct {
		XP    *float64 `yaml:"xp"`
		Money *float64 `yaml:"money"`
	} `yaml:"default"`
	NonMineable []string               `yaml:"non-mineable"`
	Rewards     map[string]rewardEntry `yaml:"rewards"`
}

// ensureFile writes the embedded default to path if nothing is there yet
func ensureFile(path string, contents []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0o644)
}

// applyProgression overlays a progression file onto snap. Keys absent
// from the file keep the values already in snap.
func applyProgression(snap *Snapshot, data []byte) error {
	f := progressionFile{
		ConfigVersion: 1,
		Levels:        snap.Levels,
		Prestige:      snap.Prestige,
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse progression: %w", err)
	}

	snap.ConfigVersion = f.ConfigVersion
	snap.Levels = f.Levels
	snap.Prestige = f.Prestige

	snap.Formulas = make(map[string]string, len(DefaultFormulas))
	for name, expr := range f.Formulas {
		snap.Formulas[name] = expr
	}
	for name, expr := range DefaultFormulas {
		if strings.TrimSpace(snap.Formulas[name]) == "" {
			snap.Formulas[name] = expr
		}
	}

	snap.Messages = make(map[string]string)
	flattenMessages("", f.Messages, snap.Messages)

	snap.Effects = Effects{
		LevelUpSound:  f.Effects.LevelUp.Sound,
		PrestigeSound: f.Effects.Prestige.Sound,
	}
	return nil
}

func flattenMessages(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flattenMessages(key, val, out)
		case string:
			out[key] = strings.TrimSpace(val)
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func applyRewards(snap *Snapshot, data []byte) error {
	var f rewardsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse block rewards: %w", err)
	}

	table := RewardTable{
		Default:     snap.Rewards.Default,
		NonMineable: snap.Rewards.NonMineable,
		Resources:   make(map[string]Reward, len(f.Rewards)),
	}
	if f.Default.XP != nil {
		table.Default.XP = *f.Default.XP
	}
	if f.Default.Money != nil {
		table.Default.Money = *f.Default.Money
	}
	if f.NonMineable != nil {
		table.NonMineable = make(map[string]bool, len(f.NonMineable))
		for _, kind := range f.NonMineable {
			table.NonMineable[normalizeKind(kind)] = true
		}
	}
	for kind, entry := range f.Rewards {
		r := table.Default
		if entry.XP != nil {
			r.XP = *entry.XP
		}
		if entry.Money != nil {
			r.Money = *entry.Money
		}
		table.Resources[normalizeKind(kind)] = r
	}
	snap.Rewards = table
	return nil
}
