package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/eval"
	"falcon/interpreter-go/pkg/library"
	"falcon/interpreter-go/pkg/logging"
)

const (
	statementLet     = "let"
	statementInclude = "include"
)

// Dispatch executes one tokenized statement. tokens[0] names a builtin statement
// or a command of an included module; the remaining tokens are passed unchanged.
func (i *Interpreter) Dispatch(ctx context.Context, tokens []string) (library.Result, error) {
	if len(tokens) == 0 {
		return library.Void, nil
	}
	command, args := tokens[0], tokens[1:]
	switch command {
	case statementInclude:
		i.include(args)
		return library.Void, nil
	case statementLet:
		return library.Void, i.let(ctx, args)
	}
	native, module, ok := i.registry.Lookup(command)
	if !ok {
		return library.Void, CommandNotFound.Errorf("Command not found: '%s'", command)
	}
	i.logger.Debug("Dispatching command", slog.String("command", command), slog.String("module", module.Name), slog.Int("args", len(args)))
	res, err := native.Call(i.callContext(ctx), args)
	if err != nil {
		return library.Void, errors.Wrapf(err, "%s.%s", module.Name, command)
	}
	return res, nil
}

// include loads and registers a module. Failures are reported and otherwise ignored;
// an unknown name and a module that fails to load get different messages.
func (i *Interpreter) include(args []string) {
	if len(args) == 0 {
		i.report("Error: include expects a library name.")
		return
	}
	name := args[0]
	if i.registry.Has(name) {
		return
	}
	m, err := i.loader.LoadModule(name)
	if err != nil {
		i.logger.Warn("Failed to include module", slog.String("module", name), logging.Error(err))
		if errors.Is(err, library.ErrModuleNotFound) {
			i.report(fmt.Sprintf("Error: library '%s' not found.", name))
		} else {
			i.report(fmt.Sprintf("Error: library '%s' could not be loaded: %v", name, err))
		}
		return
	}
	if m.Name == "" {
		m.Name = name
	}
	i.registry.Register(m)
	i.logger.Debug("Included module", slog.String("module", name), slog.Any("commands", m.Names()))
}

// let binds a variable. Accepted shapes are `let name=value`, where value is the
// rest of the first argument, and `let name = value...`, where value is the
// remaining arguments joined by single spaces.
func (i *Interpreter) let(ctx context.Context, args []string) error {
	var name, raw string
	switch {
	case len(args) >= 1 && strings.Contains(args[0], "="):
		name, raw, _ = strings.Cut(args[0], "=")
	case len(args) >= 3 && args[1] == "=":
		name, raw = args[0], strings.Join(args[2:], " ")
	default:
		i.logger.Warn("Ignoring malformed let statement", slog.Any("args", args))
		return nil
	}
	value, err := i.Resolve(ctx, raw)
	if err != nil {
		return errors.Wrapf(err, "let %s", name)
	}
	if len(value) >= 2 && strings.HasPrefix(value, "!") && strings.HasSuffix(value, "!") {
		n, err := eval.Evaluate(value[1:len(value)-1], i.vars)
		if err != nil {
			return errors.Wrapf(err, "let %s", name)
		}
		value = n.String()
	}
	if err := i.vars.Set(name, value); err != nil {
		return errors.Wrapf(err, "let %s", name)
	}
	i.logger.Debug("Variable set", slog.String("name", name), slog.String("value", value))
	return nil
}

func (i *Interpreter) report(msg string) {
	if _, err := fmt.Fprintln(i.diag, msg); err != nil {
		i.logger.Error("Failed to write diagnostic", logging.Error(err))
	}
}
