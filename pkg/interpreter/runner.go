package interpreter

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/library"
)

const commentPrefix = "::"

// Run executes a program line by line. Empty lines and lines starting with "::" are
// skipped. An unknown command is reported on the diagnostic writer and execution
// moves on to the next line; any other error stops the run.
func (i *Interpreter) Run(ctx context.Context, program string) error {
	for n, line := range splitLines(program) {
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := i.RunLine(ctx, line); err != nil {
			if IsCommandNotFound(err) {
				i.report(err.Error())
				continue
			}
			return errors.Wrapf(err, "line %d", n+1)
		}
	}
	return nil
}

// RunLine tokenizes and dispatches a single line.
func (i *Interpreter) RunLine(ctx context.Context, line string) (library.Result, error) {
	return i.Dispatch(ctx, strings.Fields(line))
}

// ExecLine runs line on behalf of a snippet or library command, counting it against
// the nesting limit.
func (i *Interpreter) ExecLine(ctx context.Context, line string) (library.Result, error) {
	if i.depth >= i.maxDepth {
		return library.Void, NestingTooDeep.Errorf("nesting deeper than %d levels", i.maxDepth)
	}
	i.depth++
	defer func() { i.depth-- }()
	return i.RunLine(ctx, line)
}

func splitLines(program string) []string {
	lines := strings.Split(program, "\n")
	for n, line := range lines {
		lines[n] = strings.TrimSuffix(line, "\r")
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
