package eval

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLookup map[string]string

func (m mapLookup) Get(name string) (string, error) { return m[name], nil }

func TestEvaluateArithmetic(t *testing.T) {
	for _, test := range []struct {
		expr string
		want string
	}{
		{"2+3", "5"},
		{"2*3-1", "5"},
		{"10/4", "2.5"},
		{"4/2", "2.0"},
		{"-5+2", "-3"},
		{"(1+2)*3", "9"},
		{"2**10", "1024"},
		{"2**-1", "0.5"},
		{"2.0**2", "4.0"},
		{"6^3", "5"},
		{"1.5+1", "2.5"},
		{"-(2.5)", "-2.5"},
		{" 7 - 10 ", "-3"},
	} {
		t.Run(test.expr, func(t *testing.T) {
			got, err := Evaluate(test.expr, nil)
			require.NoError(t, err)
			assert.Equal(t, test.want, got.String())
		})
	}
}

func TestEvaluateNumericTypes(t *testing.T) {
	n, err := Evaluate("2+3", nil)
	require.NoError(t, err)
	assert.False(t, n.IsFloat())
	assert.Equal(t, int64(5), n.Int64())

	n, err = Evaluate("10/4", nil)
	require.NoError(t, err)
	assert.True(t, n.IsFloat())
	assert.Equal(t, 2.5, n.Float64())
}

func TestEvaluateVariables(t *testing.T) {
	n, err := Evaluate("$x+1", mapLookup{"x": "4"})
	require.NoError(t, err)
	assert.Equal(t, "5", n.String())

	n, err = Evaluate("$x+1", mapLookup{"x": "4.5"})
	require.NoError(t, err)
	assert.Equal(t, "5.5", n.String())

	n, err = Evaluate("$a*$b", mapLookup{"a": " 3 ", "b": "-2"})
	require.NoError(t, err)
	assert.Equal(t, "-6", n.String())

	n, err = Evaluate("$v2*2+$x_1", mapLookup{"v2": "10", "x_1": "1"})
	require.NoError(t, err)
	assert.Equal(t, "21", n.String())

	n, err = Evaluate("0.1+0.2", nil)
	require.NoError(t, err)
	assert.Equal(t, "0.30000000000000004", n.String())

	_, err = Evaluate("$x+1", failingLookup{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store offline")
}

type failingLookup struct{}

func (failingLookup) Get(string) (string, error) { return "", errors.New("store offline") }

func TestEvaluateErrors(t *testing.T) {
	for _, test := range []struct {
		expr string
		vars mapLookup
		kind ErrorKind
	}{
		{"$x+1", mapLookup{"x": "abc"}, NonNumericVariable},
		{"$missing+1", nil, NonNumericVariable},
		{"$x", mapLookup{"x": "1.2.3"}, NonNumericVariable},
		{"1/0", nil, DivisionByZero},
		{"1.5/0.0", nil, DivisionByZero},
		{"0**-1", nil, DivisionByZero},
		{"x+1", nil, UnsupportedOperation},
		{`"a"+1`, nil, UnsupportedOperation},
		{"foo(1)", nil, UnsupportedOperation},
		{"7%2", nil, UnsupportedOperation},
		{"1.5^2", nil, UnsupportedOperation},
		{"true", nil, UnsupportedOperation},
		{"1 +", nil, MalformedExpression},
		{"0x10", nil, MalformedExpression},
		{"1_000", nil, MalformedExpression},
		{"1e3", nil, MalformedExpression},
		{"2*1E2", nil, MalformedExpression},
		{"0b101+1", nil, MalformedExpression},
		{"", nil, MalformedExpression},
		{"   ", nil, MalformedExpression},
	} {
		t.Run(test.expr, func(t *testing.T) {
			_, err := Evaluate(test.expr, test.vars)
			require.Error(t, err)
			assert.Equal(t, test.kind, GetErrorKind(err), "error: %v", err)
		})
	}
}

func TestNonNumericVariableMessage(t *testing.T) {
	_, err := Evaluate("$name*2", mapLookup{"name": "bob"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$name")
	assert.Contains(t, err.Error(), `"bob"`)
}

func TestNumberString(t *testing.T) {
	a, b := 0.1, 0.2
	for _, test := range []struct {
		n    Number
		want string
	}{
		{Int(0), "0"},
		{Int(-12), "-12"},
		{Float(0), "0.0"},
		{Float(100), "100.0"},
		{Float(a + b), "0.30000000000000004"},
		{Float(1e16), "1e+16"},
		{Float(1234567), "1234567.0"},
		{Float(1.5e-5), "1.5e-05"},
		{Float(0.0001), "0.0001"},
	} {
		assert.Equal(t, test.want, test.n.String())
	}
}

func TestParseNumber(t *testing.T) {
	n, ok := ParseNumber("12")
	require.True(t, ok)
	assert.False(t, n.IsFloat())
	n, ok = ParseNumber("1.")
	require.True(t, ok)
	assert.True(t, n.IsFloat())
	_, ok = ParseNumber("1e5")
	assert.False(t, ok)
	_, ok = ParseNumber("")
	assert.False(t, ok)
}

func TestGetErrorKindForeignError(t *testing.T) {
	assert.Equal(t, Undefined, GetErrorKind(assert.AnError))
}
