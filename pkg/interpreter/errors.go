package interpreter

import (
	"github.com/pkg/errors"
)

const (
	Undefined = ErrorKind(iota)
	CommandNotFound
	UnterminatedDelimiter
	NestingTooDeep
)

// ErrorKind classifies failures raised while scanning and dispatching lines.
type ErrorKind uint

func (k ErrorKind) String() string {
	switch k {
	case CommandNotFound:
		return "CommandNotFound"
	case UnterminatedDelimiter:
		return "UnterminatedDelimiter"
	case NestingTooDeep:
		return "NestingTooDeep"
	default:
		return "Undefined"
	}
}

type interpreterError struct {
	kind ErrorKind
	err  error
}

func (e interpreterError) Error() string {
	return e.err.Error()
}

func (e interpreterError) Unwrap() error {
	return e.err
}

func (k ErrorKind) New(msg string) error {
	return interpreterError{kind: k, err: errors.New(msg)}
}

func (k ErrorKind) Errorf(msg string, args ...interface{}) error {
	return interpreterError{kind: k, err: errors.Errorf(msg, args...)}
}

// GetErrorKind reports the kind of the first interpreter error in err's chain.
func GetErrorKind(err error) ErrorKind {
	var ie interpreterError
	if errors.As(err, &ie) {
		return ie.kind
	}
	return Undefined
}

// IsCommandNotFound reports whether err is the recoverable unknown-command failure.
func IsCommandNotFound(err error) bool {
	return GetErrorKind(err) == CommandNotFound
}
