package eval

import (
	"math"
	"strconv"
	"strings"
)

// Number is the result of an evaluation: either an integer or a float.
type Number struct {
	i       int64
	f       float64
	isFloat bool
}

// Int wraps an integer value.
func Int(v int64) Number { return Number{i: v} }

// Float wraps a floating point value.
func Float(v float64) Number { return Number{f: v, isFloat: true} }

func (n Number) IsFloat() bool { return n.isFloat }

// Int64 returns the integer value, truncating floats toward zero.
func (n Number) Int64() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

func (n Number) Float64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// String renders integers in decimal and floats in their shortest round-trip form,
// always with a decimal point or exponent (2.0, 2.5, 1e+16).
func (n Number) String() string {
	if !n.isFloat {
		return strconv.FormatInt(n.i, 10)
	}
	return formatFloat(n.f)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	_, expPart, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expPart)
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseNumber coerces a stored string: values containing '.' parse as floats, all
// others as integers. Surrounding whitespace is ignored.
func ParseNumber(s string) (Number, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Number{}, false
		}
		return Float(f), true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Number{}, false
	}
	return Int(i), true
}
