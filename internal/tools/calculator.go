package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

var calcEnv = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

func unary(name string, f func(float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("%s expects 1 argument", name)
		}
		x, ok := toFloat(params[0])
		if !ok {
			return nil, fmt.Errorf("%s expects a number", name)
		}
		return f(x), nil
	})
}

var calcOptions = []expr.Option{
	expr.Env(calcEnv),
	unary("sqrt", math.Sqrt),
	unary("sin", math.Sin),
	unary("cos", math.Cos),
	unary("tan", math.Tan),
	unary("ln", math.Log),
	unary("log", math.Log10),
	unary("exp", math.Exp),
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// Evaluate computes a math expression. × and ÷ are accepted as operators.
func Evaluate(expression string) (float64, error) {
	cleaned := strings.NewReplacer("×", "*", "÷", "/").Replace(strings.TrimSpace(expression))
	program, err := expr.Compile(cleaned, calcOptions...)
	if err != nil {
		return 0, err
	}
	out, err := expr.Run(program, calcEnv)
	if err != nil {
		return 0, err
	}
	v, ok := toFloat(out)
	if !ok {
		return 0, fmt.Errorf("result is not a number: %v", out)
	}
	return v, nil
}

// formatNumber prints whole results as integers.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func calculator(callID string, a args) Result {
	expression, ok := a.str("expression")
	if !ok {
		return missing(callID, "expression")
	}
	v, err := Evaluate(expression)
	if err != nil {
		return failure(callID, "Failed to evaluate expression '%s': %v", expression, err)
	}
	return success(callID, expression+" = "+formatNumber(v))
}
