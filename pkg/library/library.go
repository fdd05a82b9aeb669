// Package library defines the capability sets Falcon programs call into.
//
// A Module is a named, ordered set of Native commands. Modules are registered in a
// Registry by the `include` statement; command lookup walks the registry in
// registration order and the first module exposing the command wins.
package library

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

// VoidMarker is how a void result renders when it has to be shown as text.
const VoidMarker = ".voidobj"

// Result is the outcome of a command: text (possibly empty) or void.
type Result struct {
	text string
	set  bool
}

// Void is the result of a command that produced no textual output.
var Void = Result{}

// Text wraps s as a textual result. The empty string is a legitimate output.
func Text(s string) Result { return Result{text: s, set: true} }

func (r Result) IsVoid() bool { return !r.set }

// Value returns the text and whether the result carries any.
func (r Result) Value() (string, bool) { return r.text, r.set }

func (r Result) String() string {
	if !r.set {
		return VoidMarker
	}
	return r.text
}

// Executor runs code in the calling interpreter.
type Executor interface {
	// ExecLine runs a single statement.
	ExecLine(ctx context.Context, line string) (Result, error)
	// Resolve expands $name, !expr! and ;snippet; constructs in text.
	Resolve(ctx context.Context, text string) (string, error)
}

// CallContext provides hooks for native commands.
type CallContext struct {
	Context     context.Context
	Stdout      io.Writer
	Stdin       *bufio.Reader
	Logger      *slog.Logger
	ProgramArgs []string
	Exec        Executor
}

// ResolveArgs expands the inline constructs of each argument. Without an executor
// the arguments are returned as given.
func (c *CallContext) ResolveArgs(args []string) ([]string, error) {
	if c.Exec == nil {
		return args, nil
	}
	out := make([]string, len(args))
	for i, arg := range args {
		v, err := c.Exec.Resolve(c.Context, arg)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i+1)
		}
		out[i] = v
	}
	return out, nil
}

type NativeFunc func(call *CallContext, args []string) (Result, error)

// Native is a command implemented in Go. A negative Arity accepts any number of
// arguments.
type Native struct {
	Name  string
	Arity int
	Impl  NativeFunc
}

// Call checks the argument count and invokes the implementation.
func (n Native) Call(call *CallContext, args []string) (Result, error) {
	if n.Arity >= 0 && len(args) != n.Arity {
		return Void, errors.Errorf("%s expects %d arguments, got %d", n.Name, n.Arity, len(args))
	}
	return n.Impl(call, args)
}

// Module is a named capability set.
type Module struct {
	Name    string
	natives map[string]Native
	order   []string
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, natives: make(map[string]Native)}
}

// Define adds or replaces a command.
func (m *Module) Define(n Native) *Module {
	if _, exists := m.natives[n.Name]; !exists {
		m.order = append(m.order, n.Name)
	}
	m.natives[n.Name] = n
	return m
}

func (m *Module) Lookup(name string) (Native, bool) {
	n, ok := m.natives[name]
	return n, ok
}

// Names lists the commands in definition order.
func (m *Module) Names() []string {
	return append([]string(nil), m.order...)
}

// ErrModuleNotFound is returned by loaders that do not know a module name.
var ErrModuleNotFound = errors.New("module not found")
