package formula

import (
	"math"

	"github.com/Shopify/go-lua"
)

func unary(f func(float64) float64) lua.Function {
	return func(l *lua.State) int {
		l.PushNumber(f(lua.CheckNumber(l, 1)))
		return 1
	}
}

func binary(f func(float64, float64) float64) lua.Function {
	return func(l *lua.State) int {
		l.PushNumber(f(lua.CheckNumber(l, 1), lua.CheckNumber(l, 2)))
		return 1
	}
}

func signum(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

var functions = map[string]lua.Function{
	"abs":    unary(math.Abs),
	"acos":   unary(math.Acos),
	"asin":   unary(math.Asin),
	"atan":   unary(math.Atan),
	"cbrt":   unary(math.Cbrt),
	"ceil":   unary(math.Ceil),
	"cos":    unary(math.Cos),
	"cosh":   unary(math.Cosh),
	"exp":    unary(math.Exp),
	"floor":  unary(math.Floor),
	"log":    unary(math.Log),
	"log10":  unary(math.Log10),
	"log2":   unary(math.Log2),
	"signum": unary(signum),
	"sin":    unary(math.Sin),
	"sinh":   unary(math.Sinh),
	"sqrt":   unary(math.Sqrt),
	"tan":    unary(math.Tan),
	"tanh":   unary(math.Tanh),
	"min":    binary(math.Min),
	"max":    binary(math.Max),
	"pow":    binary(math.Pow),
}

func registerFunctions(l *lua.State) {
	for name, fn := range functions {
		l.Register(name, fn)
	}
}
