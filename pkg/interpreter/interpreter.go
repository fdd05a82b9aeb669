package interpreter

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"falcon/interpreter-go/pkg/library"
	"falcon/interpreter-go/pkg/logging"
	"falcon/interpreter-go/pkg/vars"
)

// DefaultMaxDepth bounds nested snippet and script command execution.
const DefaultMaxDepth = 64

// ModuleLoader resolves the argument of `include` to a library module. Unknown
// names should be reported with an error wrapping library.ErrModuleNotFound.
type ModuleLoader interface {
	LoadModule(name string) (*library.Module, error)
}

// ModuleLoaderFunc adapts a function to ModuleLoader.
type ModuleLoaderFunc func(name string) (*library.Module, error)

func (f ModuleLoaderFunc) LoadModule(name string) (*library.Module, error) { return f(name) }

// Interpreter holds the state of one Falcon program.
type Interpreter struct {
	vars     vars.Store
	registry *library.Registry
	loader   ModuleLoader
	stdout   io.Writer
	stdin    *bufio.Reader
	diag     io.Writer
	logger   *slog.Logger
	maxDepth int
	depth    int
	args     []string
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithVars sets the variable store. The interpreter does not close it.
func WithVars(store vars.Store) Option {
	return func(i *Interpreter) { i.vars = store }
}

// WithLoader sets the loader consulted by `include`.
func WithLoader(loader ModuleLoader) Option {
	return func(i *Interpreter) { i.loader = loader }
}

func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) { i.stdout = w }
}

func WithStdin(r io.Reader) Option {
	return func(i *Interpreter) {
		if br, ok := r.(*bufio.Reader); ok {
			i.stdin = br
			return
		}
		i.stdin = bufio.NewReader(r)
	}
}

// WithDiagnostics sets where recovered errors are reported.
func WithDiagnostics(w io.Writer) Option {
	return func(i *Interpreter) { i.diag = w }
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// WithMaxDepth bounds nested execution; values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(i *Interpreter) {
		if depth > 0 {
			i.maxDepth = depth
		}
	}
}

// WithProgramArgs sets the arguments exposed to library commands.
func WithProgramArgs(args []string) Option {
	return func(i *Interpreter) { i.args = append([]string(nil), args...) }
}

// New creates an interpreter with an in-memory variable store, no loadable modules
// and the process standard streams, then applies opts.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		vars:     vars.NewMemory(),
		registry: library.NewRegistry(),
		loader: ModuleLoaderFunc(func(string) (*library.Module, error) {
			return nil, library.ErrModuleNotFound
		}),
		stdout:   os.Stdout,
		diag:     os.Stderr,
		logger:   logging.Discard(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.stdin == nil {
		i.stdin = bufio.NewReader(os.Stdin)
	}
	i.logger = i.logger.With(logging.Namespace("interpreter"))
	return i
}

// Vars returns the variable store.
func (i *Interpreter) Vars() vars.Store { return i.vars }

// Registry returns the modules included so far.
func (i *Interpreter) Registry() *library.Registry { return i.registry }

// Register makes m available without an `include` statement.
func (i *Interpreter) Register(m *library.Module) bool {
	return i.registry.Register(m)
}

func (i *Interpreter) callContext(ctx context.Context) *library.CallContext {
	return &library.CallContext{
		Context:     ctx,
		Stdout:      i.stdout,
		Stdin:       i.stdin,
		Logger:      i.logger,
		ProgramArgs: i.args,
		Exec:        i,
	}
}
