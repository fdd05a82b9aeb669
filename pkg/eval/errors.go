package eval

import (
	"github.com/pkg/errors"
)

const (
	Undefined = ErrorKind(iota)
	MalformedExpression
	UnsupportedOperation
	NonNumericVariable
	DivisionByZero
)

// ErrorKind classifies evaluation failures.
type ErrorKind uint

func (k ErrorKind) String() string {
	switch k {
	case MalformedExpression:
		return "MalformedExpression"
	case UnsupportedOperation:
		return "UnsupportedOperation"
	case NonNumericVariable:
		return "NonNumericVariable"
	case DivisionByZero:
		return "DivisionByZero"
	default:
		return "Undefined"
	}
}

type evaluationError struct {
	kind ErrorKind
	err  error
}

func (e evaluationError) Error() string {
	return e.err.Error()
}

func (e evaluationError) Unwrap() error {
	return e.err
}

func (k ErrorKind) New(msg string) error {
	return evaluationError{kind: k, err: errors.New(msg)}
}

func (k ErrorKind) Errorf(msg string, args ...interface{}) error {
	return evaluationError{kind: k, err: errors.Errorf(msg, args...)}
}

func (k ErrorKind) Wrapf(err error, msg string, args ...interface{}) error {
	return evaluationError{kind: k, err: errors.Wrapf(err, msg, args...)}
}

// GetErrorKind reports the kind of the first evaluation error in err's chain.
func GetErrorKind(err error) ErrorKind {
	var ee evaluationError
	if errors.As(err, &ee) {
		return ee.kind
	}
	return Undefined
}
