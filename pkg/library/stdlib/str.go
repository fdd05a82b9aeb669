package stdlib

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/library"
)

func strModule() *library.Module {
	return resolvingArgs(library.NewModule("std.str").
		Define(stringMap("upper", strings.ToUpper)).
		Define(stringMap("lower", strings.ToLower)).
		Define(stringMap("trim", strings.TrimSpace)).
		Define(library.Native{Name: "len", Arity: -1, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
			return library.Text(strconv.Itoa(utf8.RuneCountInString(strings.Join(args, " ")))), nil
		}}).
		Define(library.Native{Name: "concat", Arity: -1, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
			return library.Text(strings.Join(args, "")), nil
		}}).
		Define(library.Native{Name: "repeat", Arity: 2, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return library.Void, errors.Errorf("repeat: count must be a non-negative integer, got %q", args[1])
			}
			return library.Text(strings.Repeat(args[0], n)), nil
		}}).
		Define(library.Native{Name: "replace", Arity: 3, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
			return library.Text(strings.ReplaceAll(args[0], args[1], args[2])), nil
		}}))
}

// stringMap applies fn to the arguments joined by single spaces.
func stringMap(name string, fn func(string) string) library.Native {
	return library.Native{Name: name, Arity: -1, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
		return library.Text(fn(strings.Join(args, " "))), nil
	}}
}
