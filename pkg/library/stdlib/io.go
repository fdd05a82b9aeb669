package stdlib

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/library"
)

func ioModule() *library.Module {
	return resolvingArgs(library.NewModule("std.io").
		Define(library.Native{Name: "print", Arity: -1, Impl: ioPrint}).
		Define(library.Native{Name: "println", Arity: -1, Impl: ioPrintln}).
		Define(library.Native{Name: "input", Arity: -1, Impl: ioInput}))
}

func ioPrint(call *library.CallContext, args []string) (library.Result, error) {
	if _, err := io.WriteString(call.Stdout, strings.Join(args, " ")); err != nil {
		return library.Void, errors.Wrap(err, "print")
	}
	return library.Void, nil
}

func ioPrintln(call *library.CallContext, args []string) (library.Result, error) {
	if _, err := fmt.Fprintln(call.Stdout, strings.Join(args, " ")); err != nil {
		return library.Void, errors.Wrap(err, "println")
	}
	return library.Void, nil
}

// ioInput writes the optional prompt and reads one line. EOF yields the text read
// so far (possibly empty).
func ioInput(call *library.CallContext, args []string) (library.Result, error) {
	if len(args) > 0 {
		if _, err := io.WriteString(call.Stdout, strings.Join(args, " ")); err != nil {
			return library.Void, errors.Wrap(err, "input")
		}
	}
	if call.Stdin == nil {
		return library.Text(""), nil
	}
	line, err := call.Stdin.ReadString('\n')
	if err != nil && err != io.EOF {
		return library.Void, errors.Wrap(err, "input")
	}
	return library.Text(strings.TrimRight(line, "\r\n")), nil
}
