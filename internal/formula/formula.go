// Package formula evaluates the arithmetic expressions operators write in
// the progression config. Expressions are compiled as a Lua chunk with no
// libraries opened, after a lexical check that only arithmetic can appear.
//
// Two operators follow Lua rather than Java: "^" is power, and "%" is the
// floored modulo, so -7 % 3 is 2. A run of minus signs is negation, never
// a Lua comment.
package formula

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/Shopify/go-lua"
)

// Variable names every evaluation context carries
const (
	VarBase             = "base"
	VarMultiplier       = "multiplier"
	VarLevel            = "level"
	VarPrestige         = "prestige"
	VarBlockXP          = "blockXp"
	VarBaseMoney        = "baseMoney"
	VarXP               = "xp"
	VarRewardMultiplier = "rewardMultiplier"
)

var (
	ErrEmptyExpression   = errors.New("empty expression")
	ErrIllegalCharacter  = errors.New("illegal character in expression")
	ErrIllegalIdentifier = errors.New("illegal identifier in expression")
	ErrNotANumber        = errors.New("expression did not produce a finite number")
)

// Variables maps a variable name to its value for one evaluation
type Variables map[string]float64

// Neutral returns a context holding every recognized variable at a value
// that leaves the usual formulas unchanged.
func Neutral() Variables {
	return Variables{
		VarBase:             0,
		VarMultiplier:       1,
		VarLevel:            1,
		VarPrestige:         0,
		VarBlockXP:          0,
		VarBaseMoney:        0,
		VarXP:               0,
		VarRewardMultiplier: 1,
	}
}

// With returns a copy of v with the given overrides applied
func (v Variables) With(overrides Variables) Variables {
	out := make(Variables, len(v)+len(overrides))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range overrides {
		out[k] = val
	}
	return out
}

// Evaluator turns expression strings into numbers. Failures never escape:
// they are logged and the result is 0.
type Evaluator struct {
	logger *slog.Logger
	debug  bool
}

// New creates an Evaluator. With debug set every evaluation is logged.
func New(logger *slog.Logger, debug bool) *Evaluator {
	return &Evaluator{logger: logger, debug: debug}
}

// Evaluate computes expression against vars, returning 0 on any failure
func (e *Evaluator) Evaluate(expression string, vars Variables) float64 {
	result, err := Eval(expression, vars)
	if err != nil {
		e.logger.Error("formula evaluation failed",
			slog.String("expression", expression),
			slog.String("error", err.Error()),
		)
		return 0
	}
	if e.debug {
		e.logger.Info("formula evaluated",
			slog.String("expression", expression),
			slog.Float64("result", result),
			slog.Any("variables", map[string]float64(vars)),
		)
	}
	return result
}

// Eval is the error-returning form of Evaluate
func Eval(expression string, vars Variables) (result float64, err error) {
	if err := Check(expression, vars); err != nil {
		return 0, err
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = 0, fmt.Errorf("evaluate: %v", r)
		}
	}()

	l := lua.NewState()
	registerFunctions(l)
	for name, val := range vars {
		l.PushNumber(val)
		l.SetGlobal(name)
	}

	if err := lua.LoadString(l, "return ("+splitMinusRuns(expression)+")"); err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		return 0, fmt.Errorf("evaluate: %w", err)
	}
	if l.TypeOf(-1) != lua.TypeNumber {
		return 0, ErrNotANumber
	}
	n, _ := l.ToNumber(-1)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, ErrNotANumber
	}
	return n, nil
}

// Check validates expression lexically. Identifiers must be known
// variables or functions.
func Check(expression string, vars Variables) error {
	if strings.TrimSpace(expression) == "" {
		return ErrEmptyExpression
	}
	if strings.Contains(expression, "..") {
		return fmt.Errorf("%w: %q", ErrIllegalCharacter, "..")
	}

	var ident strings.Builder
	flush := func() error {
		defer ident.Reset()
		name := ident.String()
		if name == "" || unicode.IsDigit(rune(name[0])) {
			return nil
		}
		if _, ok := vars[name]; ok {
			return nil
		}
		if _, ok := functions[name]; ok {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrIllegalIdentifier, name)
	}

	for _, r := range expression {
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			ident.WriteRune(r)
			continue
		case r == '.' && ident.Len() > 0 && unicode.IsDigit(rune(ident.String()[0])):
			ident.WriteRune(r)
			continue
		}
		if err := flush(); err != nil {
			return err
		}
		switch {
		case unicode.IsSpace(r):
		case strings.ContainsRune("+-*/%^(),.", r):
		default:
			return fmt.Errorf("%w: %q", ErrIllegalCharacter, r)
		}
	}
	return flush()
}

// splitMinusRuns spaces out "--" so "2--3" reads as 2 - (-3) and does not
// start a Lua comment
func splitMinusRuns(expression string) string {
	for strings.Contains(expression, "--") {
		expression = strings.ReplaceAll(expression, "--", "- -")
	}
	return expression
}

// Functions lists the callable function names, sorted
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
