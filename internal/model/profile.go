package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CurrentSchemaVersion is stamped onto every record written by this build
const CurrentSchemaVersion = 1

// ProfileID uniquely identifies a player across sessions
type ProfileID = uuid.UUID

// ParseProfileID parses the canonical textual form of a ProfileID
func ParseProfileID(s string) (ProfileID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidProfileID
	}
	return id, nil
}

// Record is the durable form of a profile
type Record struct {
	ID               ProfileID `json:"identity"`
	DisplayName      string    `json:"displayName"`
	Level            int       `json:"level"`
	Experience       float64   `json:"experience"`
	Prestige         int       `json:"prestige"`
	BalanceMirror    float64   `json:"balanceMirror"`
	RewardMultiplier float64   `json:"rewardMultiplier"`
	LastSeen         time.Time `json:"lastSeen"`
	SchemaVersion    int       `json:"schemaVersion"`
}

// NewRecord returns the record of a player seen for the first time
func NewRecord(id ProfileID, name string, now time.Time) Record {
	return Record{
		ID:               id,
		DisplayName:      name,
		Level:            1,
		RewardMultiplier: 1.0,
		LastSeen:         now,
		SchemaVersion:    CurrentSchemaVersion,
	}
}

// Migrate brings a record written by an older build up to the current
// schema and clamps values a hand-edited file could have broken.
func (r *Record) Migrate() {
	if r.Level < 1 {
		r.Level = 1
	}
	if r.Experience < 0 {
		r.Experience = 0
	}
	if r.Prestige < 0 {
		r.Prestige = 0
	}
	if r.RewardMultiplier <= 0 {
		r.RewardMultiplier = 1.0
	}
	if r.SchemaVersion < CurrentSchemaVersion {
		r.SchemaVersion = CurrentSchemaVersion
	}
}

// Profile is the live, cached state of an online player.
// Callers mutating more than one field must hold the profile lock.
type Profile struct {
	mu sync.Mutex

	rec      Record
	progress float64 // display ratio, not persisted
}

// NewProfile wraps a record in a live profile
func NewProfile(rec Record) *Profile {
	rec.Migrate()
	return &Profile{rec: rec}
}

// Lock acquires the per-profile guard
func (p *Profile) Lock() { p.mu.Lock() }

// Unlock releases the per-profile guard
func (p *Profile) Unlock() { p.mu.Unlock() }

// ID never changes for the lifetime of the profile
func (p *Profile) ID() ProfileID { return p.rec.ID }

// Snapshot returns a copy of the persisted fields
func (p *Profile) Snapshot() Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rec
}

// The accessors below expect the caller to hold the lock.

func (p *Profile) DisplayName() string       { return p.rec.DisplayName }
func (p *Profile) Level() int                { return p.rec.Level }
func (p *Profile) Experience() float64       { return p.rec.Experience }
func (p *Profile) Prestige() int             { return p.rec.Prestige }
func (p *Profile) BalanceMirror() float64    { return p.rec.BalanceMirror }
func (p *Profile) RewardMultiplier() float64 { return p.rec.RewardMultiplier }
func (p *Profile) LastSeen() time.Time       { return p.rec.LastSeen }
func (p *Profile) Progress() float64         { return p.progress }

func (p *Profile) SetDisplayName(name string)    { p.rec.DisplayName = name }
func (p *Profile) SetLevel(level int)            { p.rec.Level = level }
func (p *Profile) SetExperience(xp float64)      { p.rec.Experience = xp }
func (p *Profile) SetPrestige(prestige int)      { p.rec.Prestige = prestige }
func (p *Profile) SetBalanceMirror(b float64)    { p.rec.BalanceMirror = b }
func (p *Profile) SetRewardMultiplier(m float64) { p.rec.RewardMultiplier = m }
func (p *Profile) SetLastSeen(t time.Time)       { p.rec.LastSeen = t }
func (p *Profile) SetProgress(ratio float64)     { p.progress = ratio }

// Touch refreshes the session fields on join
func (p *Profile) Touch(name string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name != "" {
		p.rec.DisplayName = name
	}
	p.rec.LastSeen = now
}
