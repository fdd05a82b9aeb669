// Package eval implements Falcon's numeric expression evaluator.
//
// Expressions are parsed with the expr-lang parser and the resulting tree is walked
// here, so only a small numeric subset is accepted: integer and float literals,
// unary minus, the binary operators + - * / ** ^ and variable operands written as
// $name. Numeric literals are plain decimals (12, 1.5); the parser's hexadecimal,
// octal, binary, exponent and underscore-separated forms are rejected. Variables are resolved while walking the tree, not by textual
// substitution beforehand.
//
// Operator semantics:
//
//	+ - *   integer when both operands are integers, float otherwise
//	/       true division, always a float
//	**      exponentiation
//	^       bitwise xor, integers only
package eval

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Lookup resolves variable operands. Unbound names resolve to "".
type Lookup interface {
	Get(name string) (string, error)
}

// Evaluate parses expr and computes its value.
func Evaluate(expr string, vars Lookup) (Number, error) {
	if strings.TrimSpace(expr) == "" {
		return Number{}, MalformedExpression.New("empty expression")
	}
	if err := checkLiterals(expr); err != nil {
		return Number{}, err
	}
	tree, err := parser.Parse(expr)
	if err != nil {
		return Number{}, MalformedExpression.Wrapf(err, "malformed expression %q", expr)
	}
	e := evaluator{vars: vars}
	return e.eval(tree.Node)
}

type evaluator struct {
	vars Lookup
}

func (e evaluator) eval(node ast.Node) (Number, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return Int(int64(n.Value)), nil
	case *ast.FloatNode:
		return Float(n.Value), nil
	case *ast.IdentifierNode:
		return e.variable(n.Value)
	case *ast.UnaryNode:
		if n.Operator != "-" {
			return Number{}, UnsupportedOperation.Errorf("unsupported operation: unary %q", n.Operator)
		}
		v, err := e.eval(n.Node)
		if err != nil {
			return Number{}, err
		}
		if v.IsFloat() {
			return Float(-v.f), nil
		}
		return Int(-v.i), nil
	case *ast.BinaryNode:
		left, err := e.eval(n.Left)
		if err != nil {
			return Number{}, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return Number{}, err
		}
		return applyBinary(n.Operator, left, right)
	default:
		return Number{}, UnsupportedOperation.Errorf("unsupported operation: %s", describeNode(node))
	}
}

func (e evaluator) variable(ident string) (Number, error) {
	name, ok := strings.CutPrefix(ident, "$")
	if !ok {
		return Number{}, UnsupportedOperation.Errorf("unsupported operation: bare name %q (variables are written $%s)", ident, ident)
	}
	var raw string
	if e.vars != nil {
		var err error
		raw, err = e.vars.Get(name)
		if err != nil {
			return Number{}, err
		}
	}
	v, ok := ParseNumber(raw)
	if !ok {
		return Number{}, NonNumericVariable.Errorf("variable '$%s' is not numeric: %q", name, raw)
	}
	return v, nil
}

func applyBinary(op string, left, right Number) (Number, error) {
	switch op {
	case "+", "-", "*":
		if left.IsFloat() || right.IsFloat() {
			l, r := left.Float64(), right.Float64()
			switch op {
			case "+":
				return Float(l + r), nil
			case "-":
				return Float(l - r), nil
			default:
				return Float(l * r), nil
			}
		}
		switch op {
		case "+":
			return Int(left.i + right.i), nil
		case "-":
			return Int(left.i - right.i), nil
		default:
			return Int(left.i * right.i), nil
		}
	case "/":
		if right.Float64() == 0 {
			return Number{}, DivisionByZero.New("division by zero")
		}
		return Float(left.Float64() / right.Float64()), nil
	case "**":
		return power(left, right)
	case "^":
		if left.IsFloat() || right.IsFloat() {
			return Number{}, UnsupportedOperation.Errorf("unsupported operation: ^ (xor) requires integer operands, got %s and %s", left, right)
		}
		return Int(left.i ^ right.i), nil
	default:
		return Number{}, UnsupportedOperation.Errorf("unsupported operation: binary %q", op)
	}
}

func power(base, exp Number) (Number, error) {
	if base.IsFloat() || exp.IsFloat() || exp.i < 0 {
		if base.Float64() == 0 && exp.Float64() < 0 {
			return Number{}, DivisionByZero.New("zero raised to a negative power")
		}
		return Float(math.Pow(base.Float64(), exp.Float64())), nil
	}
	result, b, e := int64(1), base.i, exp.i
	for e > 0 {
		if e&1 == 1 {
			result *= b
		}
		b *= b
		e >>= 1
	}
	return Int(result), nil
}

func describeNode(node ast.Node) string {
	switch n := node.(type) {
	case *ast.StringNode:
		return fmt.Sprintf("string literal %q", n.Value)
	case *ast.BoolNode:
		return fmt.Sprintf("boolean literal %v", n.Value)
	case *ast.NilNode:
		return "nil literal"
	case *ast.CallNode:
		return "function call"
	default:
		return fmt.Sprintf("%T", node)
	}
}

// Apply combines two numbers with one of the binary operators Evaluate accepts.
func Apply(op string, left, right Number) (Number, error) {
	return applyBinary(op, left, right)
}

var decimalLiteral = regexp.MustCompile(`^([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)

// checkLiterals rejects numeric literals that are not plain decimals. Identifiers,
// including $name operands, may contain digits and are skipped whole.
func checkLiterals(expr string) error {
	for pos := 0; pos < len(expr); {
		c := expr[pos]
		switch {
		case isIdentStart(c):
			pos++
			for pos < len(expr) && (isIdentStart(expr[pos]) || isDigit(expr[pos])) {
				pos++
			}
		case isDigit(c) || (c == '.' && pos+1 < len(expr) && isDigit(expr[pos+1])):
			end := pos
			for end < len(expr) && (isDigit(expr[end]) || isIdentStart(expr[end]) || expr[end] == '.') {
				end++
			}
			if lit := expr[pos:end]; !decimalLiteral.MatchString(lit) {
				return MalformedExpression.Errorf("malformed expression %q: unsupported numeric literal %q", expr, lit)
			}
			pos = end
		default:
			pos++
		}
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isIdentStart also accepts every byte of a multi-byte rune.
func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}
