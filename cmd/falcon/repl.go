package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/interpreter"
	"falcon/interpreter-go/pkg/library/stdlib"
	"falcon/interpreter-go/pkg/logging"
)

const replPrompt = "falcon> "

type replCmd struct {
	History string `help:"History file; defaults to repl_history in the cache directory." type:"path"`
}

// lineReader is the part of readline the loop needs.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

func (r *replCmd) Run(g *Global) error {
	manifest, lock, err := loadProject(".")
	if err != nil {
		return err
	}
	s, err := g.newSession(manifest, lock, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			g.Logger.Error("Failed to close variable store", logging.Error(cerr))
		}
	}()

	history := r.History
	if history == "" {
		if dir, err := g.cacheDir(); err == nil {
			history = filepath.Join(dir, "repl_history")
		}
	}
	if history != "" {
		if err := g.FS.MkdirAll(filepath.Dir(history), 0o755); err != nil {
			g.Logger.Warn("History disabled", logging.Error(err))
			history = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           io.NopCloser(g.Stdin),
		Stdout:          g.Stdout,
		Stderr:          g.Stderr,
	})
	if err != nil {
		return errors.Wrap(err, "start line editor")
	}
	return repl(g.Context, s.Interpreter, rl, g.Stdout, g.Stderr)
}

// repl evaluates lines until end of input or a std.sys exit. Results that are not
// void are echoed; failures are reported and the session goes on.
func repl(ctx context.Context, in *interpreter.Interpreter, rl lineReader, stdout, stderr io.Writer) error {
	defer rl.Close()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read line")
		}
		if line = strings.TrimSpace(line); line == "" || strings.HasPrefix(line, "::") {
			continue
		}
		res, err := in.RunLine(ctx, line)
		if err != nil {
			var exit *stdlib.ExitError
			if errors.As(err, &exit) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if interpreter.IsCommandNotFound(err) {
				fmt.Fprintln(stderr, err)
			} else {
				fmt.Fprintf(stderr, "error: %v\n", err)
			}
			continue
		}
		if text, ok := res.Value(); ok {
			fmt.Fprintln(stdout, text)
		}
	}
}
