package gameplay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/panda19/prisonscore/internal/dependencies/mocks"
	"github.com/panda19/prisonscore/internal/economy"
	ledgermem "github.com/panda19/prisonscore/internal/economy/memory"
	"github.com/panda19/prisonscore/internal/formula"
	"github.com/panda19/prisonscore/internal/mainloop"
	"github.com/panda19/prisonscore/internal/model"
	"github.com/panda19/prisonscore/internal/policy"
	"github.com/panda19/prisonscore/internal/services/profiles"
	"github.com/panda19/prisonscore/internal/services/progression"
	"github.com/panda19/prisonscore/internal/storage/memory"
	"github.com/panda19/prisonscore/internal/testutil"
	"github.com/panda19/prisonscore/internal/worker"
)

type recordedFeedback struct {
	mu       sync.Mutex
	messages map[model.ProfileID][]string
	sounds   map[model.ProfileID][]string
}

func newRecordedFeedback() *recordedFeedback {
	return &recordedFeedback{
		messages: map[model.ProfileID][]string{},
		sounds:   map[model.ProfileID][]string{},
	}
}

func (f *recordedFeedback) Message(id model.ProfileID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id] = append(f.messages[id], text)
}

func (f *recordedFeedback) Sound(id model.ProfileID, sound string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sounds[id] = append(f.sounds[id], sound)
}

func (f *recordedFeedback) Messages(id model.ProfileID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages[id]...)
}

func (f *recordedFeedback) Sounds(id model.ProfileID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sounds[id]...)
}

type HandlerSuite struct {
	suite.Suite
	dir      string
	store    *memory.Storage
	worker   *worker.Worker
	loop     *mainloop.Loop
	manager  *profiles.Manager
	policy   *policy.Service
	ledger   *ledgermem.Ledger
	economy  *economy.Service
	machine  *progression.Machine
	feedback *recordedFeedback
	handler  *Handler
	ctx      context.Context
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.dir = s.T().TempDir()
	s.store = memory.New()
	s.worker = worker.New(logger)
	s.loop = mainloop.New(logger, time.Millisecond)
	s.manager = profiles.New(s.store, s.worker, s.loop,
		mocks.NewMockClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), logger)

	s.policy = policy.New(logger, formula.New(logger, false),
		filepath.Join(s.dir, "progression.yml"),
		filepath.Join(s.dir, "blockrewards.yml"))
	s.Require().NoError(s.policy.Load())

	s.ledger = ledgermem.New()
	s.economy = economy.NewService(s.ledger, s.manager, logger)
	s.machine = progression.New(s.policy, s.economy, s.loop, s.manager, logger)
	s.feedback = newRecordedFeedback()
	s.handler = New(s.manager, s.machine, s.policy, s.economy, s.feedback, false, logger)
	s.ctx = context.Background()
}

func (s *HandlerSuite) TearDownTest() {
	s.worker.Close()
	s.worker.Wait(time.Second)
}

// settle waits for queued worker tasks, then drains the main loop twice
// so callbacks scheduled by callbacks also run.
func (s *HandlerSuite) settle() {
	done := make(chan struct{})
	if err := s.worker.Submit(func() { close(done) }); err == nil {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.FailNow("worker did not drain")
		}
	}
	s.loop.RunPending()
	s.loop.RunPending()
}

// rewrite edits the progression file on disk and reloads it
func (s *HandlerSuite) rewrite(old, replacement string) {
	path := filepath.Join(s.dir, "progression.yml")
	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Require().Contains(string(data), old)
	s.Require().NoError(os.WriteFile(path, []byte(strings.Replace(string(data), old, replacement, 1)), 0o644))
	s.Require().NoError(s.policy.Reload())
}

func (s *HandlerSuite) online(level int, xp float64, prestige int) *model.Profile {
	p := s.manager.GetOrCreate(uuid.New(), "Miner")
	p.Lock()
	p.SetLevel(level)
	p.SetExperience(xp)
	p.SetPrestige(prestige)
	p.Unlock()
	return p
}

func (s *HandlerSuite) TestJoinWelcomesAndCatchesUp() {
	id := uuid.New()
	rec := model.NewRecord(id, "Miner", time.Now())
	rec.Experience = 250
	s.Require().NoError(s.store.Save(s.ctx, &rec))

	var ready *model.Profile
	s.handler.OnJoin(s.ctx, id, "Miner", func(p *model.Profile) { ready = p })
	s.settle()

	s.Require().NotNil(ready)
	s.Equal(3, ready.Snapshot().Level)

	msgs := s.feedback.Messages(id)
	s.Contains(msgs, "Welcome back, Miner!")
	s.Contains(msgs, "Level: 1 | XP: 250.0")
	s.Contains(msgs, "You reached level 3!")
	s.Equal([]string{"entity.player.levelup"}, s.feedback.Sounds(id))
}

func (s *HandlerSuite) TestLeaveSavesProfile() {
	p := s.online(7, 12, 0)

	s.Require().NoError(s.handler.OnLeave(p.ID()))
	s.settle()

	s.Nil(s.manager.Get(p.ID()))
	rec, err := s.store.Load(s.ctx, p.ID())
	s.Require().NoError(err)
	s.Equal(7, rec.Level)
}

func (s *HandlerSuite) TestYieldRequiresOnlineProfile() {
	_, err := s.handler.OnResourceYield(s.ctx, uuid.New(), "STONE", "world,0,0,0")
	s.ErrorIs(err, model.ErrProfileNotCached)
}

func (s *HandlerSuite) TestYieldSkipsNonMineable() {
	p := s.online(1, 0, 0)

	res, err := s.handler.OnResourceYield(s.ctx, p.ID(), "bedrock", "world,0,0,0")
	s.Require().NoError(err)
	s.False(res.Mineable)
	s.Zero(p.Snapshot().Experience)
	s.Zero(s.economy.Balance(s.ctx, p.ID()))
}

func (s *HandlerSuite) TestYieldScalesByPrestige() {
	p := s.online(1, 0, 2)

	res, err := s.handler.OnResourceYield(s.ctx, p.ID(), "emerald_ore", "world,1,2,3")
	s.Require().NoError(err)
	s.True(res.Mineable)
	s.InDelta(44.0, res.XP, 1e-9)
	s.InDelta(30.0, res.Money, 1e-9)
	s.InDelta(44.0, p.Snapshot().Experience, 1e-9)
	s.InDelta(30.0, s.economy.Balance(s.ctx, p.ID()), 1e-9)
	s.InDelta(30.0, p.Snapshot().BalanceMirror, 1e-9)
}

func (s *HandlerSuite) TestYieldUnknownResourceUsesDefault() {
	p := s.online(1, 0, 0)

	res, err := s.handler.OnResourceYield(s.ctx, p.ID(), "OBSIDIAN", "world,0,0,0")
	s.Require().NoError(err)
	s.True(res.Mineable)
	s.InDelta(5.0, res.XP, 1e-9)
	s.InDelta(0.5, res.Money, 1e-9)
}

func (s *HandlerSuite) TestYieldLevelsUp() {
	p := s.online(1, 90, 0)

	res, err := s.handler.OnResourceYield(s.ctx, p.ID(), "GOLD_ORE", "world,0,0,0")
	s.Require().NoError(err)
	s.Require().NotNil(res.Progress.LevelUp)
	s.Equal(2, res.Progress.LevelUp.NewLevel)
	s.Contains(s.feedback.Messages(p.ID()), "You reached level 2!")
}

func (s *HandlerSuite) TestLevelUpGuardSilencesFeedback() {
	p := s.online(1, 90, 0)
	s.handler.SetLevelUpGuard(func(model.ProfileID, model.LevelUp) bool { return false })

	_, err := s.handler.OnResourceYield(s.ctx, p.ID(), "GOLD_ORE", "world,0,0,0")
	s.Require().NoError(err)
	s.Equal(2, p.Snapshot().Level)
	s.Empty(s.feedback.Messages(p.ID()))
	s.Empty(s.feedback.Sounds(p.ID()))
}

func (s *HandlerSuite) TestPrestigeFeedback() {
	s.rewrite("required-level: 100", "required-level: 2")
	p := s.online(1, 0, 0)
	s.Require().NoError(s.ledger.Deposit(s.ctx, p.ID(), 80))

	res, err := s.handler.GrantExperience(s.ctx, p.ID(), 100)
	s.Require().NoError(err)
	s.Equal(model.OutcomeApplied, res.Prestige)

	msgs := s.feedback.Messages(p.ID())
	s.Contains(msgs, "PRESTIGE!")
	s.Contains(msgs, "You are now prestige 1")
	s.Contains(msgs, "Reward multiplier is now x1.25")
	s.Contains(s.feedback.Sounds(p.ID()), "ui.toast.challenge_complete")
	s.Zero(s.economy.Balance(s.ctx, p.ID()))
}

func (s *HandlerSuite) TestGrantRejectsNonPositive() {
	p := s.online(1, 0, 0)
	_, err := s.handler.GrantExperience(s.ctx, p.ID(), 0)
	s.ErrorIs(err, model.ErrInvalidAmount)
}

func (s *HandlerSuite) TestDeathRemovesExperienceWithoutDeleveling() {
	p := s.online(5, 7, 0)

	lost, err := s.handler.OnDeath(s.ctx, p.ID())
	s.Require().NoError(err)
	s.InDelta(7.0, lost, 1e-9)

	snap := p.Snapshot()
	s.Equal(5, snap.Level)
	s.Zero(snap.Experience)
	s.Contains(s.feedback.Messages(p.ID()), "You lost 7 XP.")
}

func (s *HandlerSuite) TestDeathWithNothingToLoseIsQuiet() {
	p := s.online(5, 0, 0)

	lost, err := s.handler.OnDeath(s.ctx, p.ID())
	s.Require().NoError(err)
	s.Zero(lost)
	s.Empty(s.feedback.Messages(p.ID()))
}

func (s *HandlerSuite) TestDebugXPMessages() {
	s.handler = New(s.manager, s.machine, s.policy, s.economy, s.feedback, true, testutil.NopLogger())
	p := s.online(1, 0, 0)

	_, err := s.handler.OnResourceYield(s.ctx, p.ID(), "STONE", "world,0,0,0")
	s.Require().NoError(err)

	msgs := s.feedback.Messages(p.ID())
	s.Contains(msgs, "+1 XP (0 -> 1), level 1 -> 1")
	s.Contains(msgs, "+1 XP | +$0.1")
}

func (s *HandlerSuite) TestReloadRevalidatesOnlineProfiles() {
	p := s.online(1, 60, 0)
	s.Equal(1, p.Snapshot().Level)

	s.rewrite("base-xp: 100.0", "base-xp: 50.0")
	s.Require().NoError(s.handler.ReloadPolicy(s.ctx))
	s.settle()

	s.Equal(2, p.Snapshot().Level)
	s.Contains(s.feedback.Messages(p.ID()), "You reached level 2!")
}
