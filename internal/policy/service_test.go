package policy

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/panda19/prisonscore/internal/formula"
	"github.com/panda19/prisonscore/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	dir             string
	progressionPath string
	rewardsPath     string
	svc             *Service
	logs            *testutil.LogBuffer
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.progressionPath = filepath.Join(s.dir, "progression.yml")
	s.rewardsPath = filepath.Join(s.dir, "blockrewards.yml")
	logger, logs := testutil.CaptureLogger()
	s.logs = logs
	s.svc = New(logger, formula.New(logger, false), s.progressionPath, s.rewardsPath)
}

func (s *ServiceSuite) write(path, contents string) {
	s.Require().NoError(os.WriteFile(path, []byte(contents), 0o644))
}

func (s *ServiceSuite) TestLoadSeedsMissingFiles() {
	s.Require().NoError(s.svc.Load())

	s.FileExists(s.progressionPath)
	s.FileExists(s.rewardsPath)

	snap := s.svc.Current()
	s.Equal(CurrentConfigVersion, snap.ConfigVersion)
	s.Equal(100.0, snap.Levels.BaseXP)
	s.Equal(1.15, snap.Levels.XPMultiplier)
	s.Equal(100, snap.Prestige.RequiredLevel)
	s.Equal(999, snap.Prestige.MaxPrestige)
	s.Equal("entity.player.levelup", snap.Effects.LevelUpSound)
}

func (s *ServiceSuite) TestXPToReachLevel() {
	s.Require().NoError(s.svc.Load())

	s.InDelta(100.0, s.svc.XPToReachLevel(1), 1e-9)
	s.InDelta(115.0, s.svc.XPToReachLevel(2), 1e-9)
	s.InDelta(100*math.Pow(1.15, 9), s.svc.XPToReachLevel(10), 1e-9)
}

func (s *ServiceSuite) TestXPToReachLevelNonDecreasing() {
	s.Require().NoError(s.svc.Load())

	prev := s.svc.XPToReachLevel(1)
	for level := 2; level <= 200; level++ {
		next := s.svc.XPToReachLevel(level)
		s.GreaterOrEqual(next, prev, "level %d", level)
		prev = next
	}
}

func (s *ServiceSuite) TestScalingAccessors() {
	s.Require().NoError(s.svc.Load())

	s.InDelta(5.0*1.1, s.svc.ScaleBlockXP(5, 2), 1e-9)
	s.InDelta(0.5*1.2, s.svc.ScaleBlockMoney(0.5, 2), 1e-9)
	s.InDelta(1.25*1.5, s.svc.PrestigeReward(1.25, 2), 1e-9)
	s.InDelta(20.0, s.svc.XPLossOnDeath(10), 1e-9)
}

func (s *ServiceSuite) TestPrestigeRewardSeesRewardMultiplier() {
	s.write(s.progressionPath, `
formulas:
  prestige-reward: "rewardMultiplier + prestige"
`)
	s.Require().NoError(s.svc.Load())

	s.InDelta(4.5, s.svc.PrestigeReward(1.5, 3), 1e-9)
}

func (s *ServiceSuite) TestMissingKeysKeepDefaults() {
	s.write(s.progressionPath, `
config-version: 2
levels:
  base-xp: 50
prestige:
  max-prestige: 5
formulas:
  level-xp: "base * level"
`)
	s.Require().NoError(s.svc.Load())

	snap := s.svc.Current()
	s.Equal(50.0, snap.Levels.BaseXP)
	s.Equal(1.15, snap.Levels.XPMultiplier)
	s.Equal(5, snap.Prestige.MaxPrestige)
	s.True(snap.Prestige.ResetBalance)
	s.Equal(1, snap.Prestige.LevelReset)
	s.Equal(DefaultFormulas[FormulaPrestigeReward], snap.Formulas[FormulaPrestigeReward])
	s.Equal(DefaultFormulas[FormulaDeathXPLoss], snap.Formulas[FormulaDeathXPLoss])
	s.InDelta(150.0, s.svc.XPToReachLevel(3), 1e-9)
}

func (s *ServiceSuite) TestMalformedFileFallsBackToDefaults() {
	s.write(s.progressionPath, "levels: [this is: not valid")

	err := s.svc.Load()
	s.Error(err)
	s.Contains(s.logs.String(), `"msg":"invalid policy file, using defaults"`)

	s.Equal(100.0, s.svc.Current().Levels.BaseXP)
	s.InDelta(100.0, s.svc.XPToReachLevel(1), 1e-9)
}

func (s *ServiceSuite) TestOldConfigVersionIsReported() {
	s.write(s.progressionPath, "config-version: 1\n")
	s.Require().NoError(s.svc.Load())

	s.Equal(1, s.svc.Current().ConfigVersion)
	s.Contains(s.logs.String(), `"msg":"old progression config detected"`)
	s.Contains(s.logs.String(), `"found_version":1`)
}

func (s *ServiceSuite) TestBrokenFormulaEvaluatesToZero() {
	s.write(s.progressionPath, `
formulas:
  death-xp-loss: "level ** 2"
`)
	s.Require().NoError(s.svc.Load())

	s.Equal(0.0, s.svc.XPLossOnDeath(10))
}

func (s *ServiceSuite) TestReloadSwapsSnapshot() {
	s.Require().NoError(s.svc.Load())
	before := s.svc.Current()

	s.write(s.progressionPath, `
levels:
  base-xp: 10
  xp-multiplier: 2
`)
	s.Require().NoError(s.svc.Reload())

	s.Equal(100.0, before.Levels.BaseXP, "old snapshot must be untouched")
	s.InDelta(40.0, s.svc.XPToReachLevel(3), 1e-9)
}

func (s *ServiceSuite) TestMessages() {
	s.Require().NoError(s.svc.Load())

	s.Equal("You reached level 7!", s.svc.Message("level-up", map[string]string{"level": "7"}))
	s.Equal("You are now prestige 3", s.svc.Message("prestige.subtitle", map[string]string{"prestige": "3"}))
	s.Equal("no.such.key", s.svc.Message("no.such.key", nil))
}

func (s *ServiceSuite) TestMessageSuffixFallback() {
	s.write(s.progressionPath, `
messages:
  title: "Top level title"
`)
	s.Require().NoError(s.svc.Load())

	s.Equal("Top level title", s.svc.Message("prestige.title", nil))
}

func (s *ServiceSuite) TestBlockRewards() {
	s.write(s.rewardsPath, `
default:
  xp: 2
rewards:
  stone:
    money: 0.25
  DIAMOND_ORE:
    xp: 30
    money: 10
`)
	s.Require().NoError(s.svc.Load())

	r, ok := s.svc.BlockReward("STONE")
	s.True(ok)
	s.Equal(Reward{XP: 2, Money: 0.25}, r)

	r, ok = s.svc.BlockReward("diamond_ore")
	s.True(ok)
	s.Equal(Reward{XP: 30, Money: 10}, r)

	r, ok = s.svc.BlockReward("DIRT")
	s.True(ok)
	s.Equal(Reward{XP: 2, Money: 0.5}, r)

	_, ok = s.svc.BlockReward("bedrock")
	s.False(ok)
	_, ok = s.svc.BlockReward("AIR")
	s.False(ok)
}

func TestSnapshotWithoutFiles(t *testing.T) {
	logger := testutil.NopLogger()
	svc := NewWithSnapshot(logger, formula.New(logger, false), Default())

	if got := svc.XPToReachLevel(2); math.Abs(got-115) > 1e-9 {
		t.Fatalf("XPToReachLevel(2) = %v, want 115", got)
	}
}
