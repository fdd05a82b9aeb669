package stdlib

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/library"
)

// ExitError asks the host to stop the program with Code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var lookupEnv = os.LookupEnv

func sysModule() *library.Module {
	return resolvingArgs(library.NewModule("std.sys").
		Define(library.Native{Name: "exit", Arity: -1, Impl: sysExit}).
		Define(library.Native{Name: "env", Arity: 1, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
			v, _ := lookupEnv(args[0])
			return library.Text(v), nil
		}}).
		Define(library.Native{Name: "args", Arity: 0, Impl: func(call *library.CallContext, _ []string) (library.Result, error) {
			return library.Text(strings.Join(call.ProgramArgs, " ")), nil
		}}).
		Define(library.Native{Name: "sleep", Arity: 1, Impl: sysSleep}))
}

func sysExit(_ *library.CallContext, args []string) (library.Result, error) {
	switch len(args) {
	case 0:
		return library.Void, &ExitError{Code: 0}
	case 1:
		code, err := strconv.Atoi(args[0])
		if err != nil {
			return library.Void, errors.Errorf("exit: status must be an integer, got %q", args[0])
		}
		return library.Void, &ExitError{Code: code}
	default:
		return library.Void, errors.Errorf("exit expects at most 1 argument, got %d", len(args))
	}
}

func sysSleep(call *library.CallContext, args []string) (library.Result, error) {
	ms, err := strconv.Atoi(args[0])
	if err != nil || ms < 0 {
		return library.Void, errors.Errorf("sleep: duration must be non-negative milliseconds, got %q", args[0])
	}
	ctx := call.Context
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return library.Void, nil
	case <-ctx.Done():
		return library.Void, ctx.Err()
	}
}
