package response

import (
	"time"

	"github.com/panda19/prisonscore/internal/model"
)

// Profile represents a player profile in API responses
type Profile struct {
	ID               string    `json:"id"`
	DisplayName      string    `json:"display_name"`
	Level            int       `json:"level"`
	Experience       float64   `json:"experience"`
	XPToNextLevel    float64   `json:"xp_to_next_level"`
	Progress         float64   `json:"progress"`
	Prestige         int       `json:"prestige"`
	Balance          float64   `json:"balance"`
	RewardMultiplier float64   `json:"reward_multiplier"`
	LastSeen         time.Time `json:"last_seen"`
	Online           bool      `json:"online"`
}

// ProfileFromRecord converts a stored or cached record. xpToNext is the
// threshold for the record's current level.
func ProfileFromRecord(rec model.Record, progress, xpToNext float64, online bool) Profile {
	return Profile{
		ID:               rec.ID.String(),
		DisplayName:      rec.DisplayName,
		Level:            rec.Level,
		Experience:       rec.Experience,
		XPToNextLevel:    xpToNext,
		Progress:         progress,
		Prestige:         rec.Prestige,
		Balance:          rec.BalanceMirror,
		RewardMultiplier: rec.RewardMultiplier,
		LastSeen:         rec.LastSeen,
		Online:           online,
	}
}

// ProfileList is the response for listing online profiles
type ProfileList struct {
	Profiles []Profile `json:"profiles"`
}

// LevelUp describes a net level increase
type LevelUp struct {
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

// Prestige describes an applied prestige
type Prestige struct {
	NewPrestige         int     `json:"new_prestige"`
	OldRewardMultiplier float64 `json:"old_reward_multiplier"`
	NewRewardMultiplier float64 `json:"new_reward_multiplier"`
}

// Progress is the outcome of an experience gain
type Progress struct {
	Gained          float64   `json:"gained"`
	LevelUp         *LevelUp  `json:"level_up,omitempty"`
	Prestige        string    `json:"prestige"`
	PrestigeDetails *Prestige `json:"prestige_details,omitempty"`
	SafetyLimitHit  bool      `json:"safety_limit_hit,omitempty"`
}

// ProgressFromModel converts model.ProgressResult
func ProgressFromModel(res model.ProgressResult) Progress {
	out := Progress{
		Gained:         res.Gained,
		Prestige:       string(res.Prestige),
		SafetyLimitHit: res.SafetyLimitHit,
	}
	if res.LevelUp != nil {
		out.LevelUp = &LevelUp{OldLevel: res.LevelUp.OldLevel, NewLevel: res.LevelUp.NewLevel}
	}
	if res.PrestigeDetails != nil {
		out.PrestigeDetails = &Prestige{
			NewPrestige:         res.PrestigeDetails.NewPrestige,
			OldRewardMultiplier: res.PrestigeDetails.OldRewardMultiplier,
			NewRewardMultiplier: res.PrestigeDetails.NewRewardMultiplier,
		}
	}
	return out
}

// YieldResponse is the response after a resource break
type YieldResponse struct {
	Resource string   `json:"resource"`
	Mineable bool     `json:"mineable"`
	XP       float64  `json:"xp"`
	Money    float64  `json:"money"`
	Progress Progress `json:"progress"`
	Profile  Profile  `json:"profile"`
}

// DeathResponse is the response after a death
type DeathResponse struct {
	Lost    float64 `json:"lost"`
	Profile Profile `json:"profile"`
}

// GrantResponse is the response after an operator grant
type GrantResponse struct {
	Progress Progress `json:"progress"`
	Profile  Profile  `json:"profile"`
}

// SaveResponse reports how many profiles were queued for saving
type SaveResponse struct {
	Scheduled int `json:"scheduled"`
}

// ReloadResponse reports the outcome of a policy reload
type ReloadResponse struct {
	Clean         bool   `json:"clean"`
	Error         string `json:"error,omitempty"`
	Revalidated   int    `json:"revalidated"`
	ConfigVersion int    `json:"config_version"`
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Online  int    `json:"online"`
	Pending int    `json:"pending_saves"`
}
