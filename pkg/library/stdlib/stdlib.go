// Package stdlib provides the builtin library modules that `include` can load
// without touching the filesystem: std.io, std.math, std.str, std.sys and std.time.
//
// Apart from std.time, commands receive their arguments after $name, !expr! and
// ;snippet; expansion in the calling interpreter, so `println $x` prints the value
// of x and `add !$n*2! 1` computes with it.
package stdlib

import (
	"sort"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/library"
)

var builders = map[string]func() *library.Module{
	"std.io":   ioModule,
	"std.math": mathModule,
	"std.str":  strModule,
	"std.sys":  sysModule,
	"std.time": timeModule,
}

// Loader resolves the builtin module names.
type Loader struct{}

func (Loader) LoadModule(name string) (*library.Module, error) {
	build, ok := builders[name]
	if !ok {
		return nil, errors.Wrapf(library.ErrModuleNotFound, "builtin %q", name)
	}
	return build(), nil
}

// Names lists the builtin module names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolvingArgs makes every command of m expand the inline constructs of its
// arguments before running. Arity is checked on the raw tokens.
func resolvingArgs(m *library.Module) *library.Module {
	for _, name := range m.Names() {
		n, _ := m.Lookup(name)
		impl := n.Impl
		n.Impl = func(call *library.CallContext, args []string) (library.Result, error) {
			args, err := call.ResolveArgs(args)
			if err != nil {
				return library.Void, err
			}
			return impl(call, args)
		}
		m.Define(n)
	}
	return m
}
