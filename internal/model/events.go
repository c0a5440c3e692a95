package model

// Outcome reports what happened to a vetoable transition
type Outcome string

const (
	// OutcomeSkipped means the transition's preconditions did not hold
	OutcomeSkipped Outcome = "skipped"
	// OutcomeVetoed means a guard cancelled the transition
	OutcomeVetoed Outcome = "vetoed"
	// OutcomeApplied means the transition took effect
	OutcomeApplied Outcome = "applied"
)

// LevelUp is the net level change produced by a single experience gain
type LevelUp struct {
	OldLevel int
	NewLevel int
}

// PrestigeIntent is offered to guards before a prestige is applied
type PrestigeIntent struct {
	ProfileID    ProfileID
	FromPrestige int
	ToPrestige   int
}

// PrestigeCompleted describes a prestige that was applied
type PrestigeCompleted struct {
	ProfileID           ProfileID
	NewPrestige         int
	OldRewardMultiplier float64
	NewRewardMultiplier float64
}

// ProgressResult is returned from every experience gain
type ProgressResult struct {
	Gained          float64
	LevelUp         *LevelUp
	Prestige        Outcome
	PrestigeDetails *PrestigeCompleted
	SafetyLimitHit  bool
}
