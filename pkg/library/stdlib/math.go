package stdlib

import (
	"math"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/eval"
	"falcon/interpreter-go/pkg/library"
)

func mathModule() *library.Module {
	m := library.NewModule("std.math")
	for name, op := range map[string]string{"add": "+", "sub": "-", "mul": "*", "div": "/", "pow": "**"} {
		m.Define(binaryMath(name, op))
	}
	m.Define(unaryMath("abs", func(n eval.Number) eval.Number {
		if n.IsFloat() {
			return eval.Float(math.Abs(n.Float64()))
		}
		if v := n.Int64(); v < 0 {
			return eval.Int(-v)
		}
		return n
	}))
	m.Define(unaryMath("sqrt", func(n eval.Number) eval.Number { return eval.Float(math.Sqrt(n.Float64())) }))
	m.Define(unaryMath("floor", roundWith(math.Floor)))
	m.Define(unaryMath("ceil", roundWith(math.Ceil)))
	m.Define(unaryMath("round", roundWith(math.RoundToEven)))
	m.Define(extremum("max", func(a, b float64) bool { return a > b }))
	m.Define(extremum("min", func(a, b float64) bool { return a < b }))
	return resolvingArgs(m)
}

func parseArgs(name string, args []string) ([]eval.Number, error) {
	out := make([]eval.Number, 0, len(args))
	for i, arg := range args {
		n, ok := eval.ParseNumber(arg)
		if !ok {
			return nil, errors.Errorf("%s: argument %d is not numeric: %q", name, i+1, arg)
		}
		out = append(out, n)
	}
	return out, nil
}

func binaryMath(name, op string) library.Native {
	return library.Native{Name: name, Arity: 2, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
		nums, err := parseArgs(name, args)
		if err != nil {
			return library.Void, err
		}
		res, err := eval.Apply(op, nums[0], nums[1])
		if err != nil {
			return library.Void, errors.Wrap(err, name)
		}
		return library.Text(res.String()), nil
	}}
}

func unaryMath(name string, fn func(eval.Number) eval.Number) library.Native {
	return library.Native{Name: name, Arity: 1, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
		nums, err := parseArgs(name, args)
		if err != nil {
			return library.Void, err
		}
		return library.Text(fn(nums[0]).String()), nil
	}}
}

// roundWith rounds floats to an integer result; integers pass through.
func roundWith(fn func(float64) float64) func(eval.Number) eval.Number {
	return func(n eval.Number) eval.Number {
		if !n.IsFloat() {
			return n
		}
		return eval.Int(int64(fn(n.Float64())))
	}
}

func extremum(name string, better func(a, b float64) bool) library.Native {
	return library.Native{Name: name, Arity: -1, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
		if len(args) == 0 {
			return library.Void, errors.Errorf("%s expects at least 1 argument", name)
		}
		nums, err := parseArgs(name, args)
		if err != nil {
			return library.Void, err
		}
		best := nums[0]
		for _, n := range nums[1:] {
			if better(n.Float64(), best.Float64()) {
				best = n
			}
		}
		return library.Text(best.String()), nil
	}}
}
