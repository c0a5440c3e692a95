package formula

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/panda19/prisonscore/internal/testutil"
)

type EvaluatorSuite struct {
	suite.Suite
	eval *Evaluator
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) SetupTest() {
	s.eval = New(testutil.NopLogger(), true)
}

func (s *EvaluatorSuite) TestSimpleVariable() {
	s.Equal(6.0, s.eval.Evaluate("2 * x", Variables{"x": 3}))
}

func (s *EvaluatorSuite) TestCaretIsPower() {
	s.InDelta(100*1.15*1.15, s.eval.Evaluate("base * (multiplier ^ (level - 1))", Variables{
		"base": 100, "multiplier": 1.15, "level": 3,
	}), 1e-9)
}

func (s *EvaluatorSuite) TestUnusedVariablesAreAccepted() {
	vars := Neutral().With(Variables{VarLevel: 7})
	s.Equal(14.0, s.eval.Evaluate("level * 2", vars))
}

func (s *EvaluatorSuite) TestFunctions() {
	cases := map[string]float64{
		"sqrt(16)":       4,
		"abs(-3)":        3,
		"floor(2.7)":     2,
		"ceil(2.1)":      3,
		"max(2, 5)":      5,
		"min(2, 5)":      2,
		"pow(2, 10)":     1024,
		"signum(-4)":     -1,
		"log10(1000)":    3,
		"log2(8)":        3,
		"cbrt(27)":       3,
		"10 % 3":         1,
		"-(2 + 3) * 1.5": -7.5,
		"1e2 + .5":       100.5,
	}
	for expr, want := range cases {
		s.InDelta(want, s.eval.Evaluate(expr, Neutral()), 1e-9, expr)
	}
}

func (s *EvaluatorSuite) TestMinusRunsAreNegation() {
	vars := Neutral().With(Variables{VarLevel: 4})
	s.Equal(5.0, s.eval.Evaluate("2 --3", vars))
	s.Equal(5.0, s.eval.Evaluate("level--1", vars))
	s.Equal(-1.0, s.eval.Evaluate("2---3", vars))
	s.Equal(3.0, s.eval.Evaluate("--3", vars))
}

func (s *EvaluatorSuite) TestModuloIsFloored() {
	s.Equal(2.0, s.eval.Evaluate("-7 % 3", Neutral()))
	s.Equal(-2.0, s.eval.Evaluate("7 % -3", Neutral()))
}

func (s *EvaluatorSuite) TestFailuresReturnZero() {
	for _, expr := range []string{
		"",
		"   ",
		"2 ** 3",
		"2 & 3",
		"(1 + 2",
		"unknown * 2",
		"1 / 0",
		"sqrt(-1)",
		"1 .. 2",
		"os.exit(1)",
		"function() end",
		"{}",
		"'abc'",
	} {
		s.NotPanics(func() {
			s.Equal(0.0, s.eval.Evaluate(expr, Neutral()), expr)
		})
	}
}

func TestEvalReportsCause(t *testing.T) {
	_, err := Eval("nope + 1", Neutral())
	assert.ErrorIs(t, err, ErrIllegalIdentifier)

	_, err = Eval("1 # 2", Neutral())
	assert.ErrorIs(t, err, ErrIllegalCharacter)

	_, err = Eval("", Neutral())
	assert.ErrorIs(t, err, ErrEmptyExpression)

	_, err = Eval("0 / 0", Neutral())
	assert.ErrorIs(t, err, ErrNotANumber)
}

func TestCheckAcceptsDefaults(t *testing.T) {
	for _, expr := range []string{
		"base * (multiplier ^ (level - 1))",
		"blockXp * (1 + (prestige * 0.05))",
		"baseMoney * (1 + (prestige * 0.1))",
		"base * (1 + (prestige * 0.25))",
		"level * 2",
	} {
		require.NoError(t, Check(expr, Neutral()), expr)
	}
}

func TestEvalFinite(t *testing.T) {
	got, err := Eval("xp / 4", Neutral().With(Variables{VarXP: 10}))
	require.NoError(t, err)
	assert.False(t, math.IsInf(got, 0))
	assert.Equal(t, 2.5, got)
}

func TestFunctionsSorted(t *testing.T) {
	names := Functions()
	assert.Contains(t, names, "sqrt")
	assert.IsIncreasing(t, names)
}
