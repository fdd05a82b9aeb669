package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/interpreter"
	"falcon/interpreter-go/pkg/library/stdlib"
)

type scriptedReader struct {
	lines  []string
	errs   map[int]error
	pos    int
	closed bool
}

func (r *scriptedReader) Readline() (string, error) {
	defer func() { r.pos++ }()
	if err, ok := r.errs[r.pos]; ok {
		return "", err
	}
	if r.pos >= len(r.lines) {
		return "", io.EOF
	}
	return r.lines[r.pos], nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func newReplInterpreter(stdout, stderr io.Writer) *interpreter.Interpreter {
	return interpreter.New(
		interpreter.WithLoader(stdlib.Loader{}),
		interpreter.WithStdout(stdout),
		interpreter.WithStdin(strings.NewReader("")),
		interpreter.WithDiagnostics(stderr),
	)
}

func TestReplEchoesResultsAndReportsErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	in := newReplInterpreter(&stdout, &stderr)
	rl := &scriptedReader{
		lines: []string{
			"include std.math",
			"add 1 2",
			"",
			":: comment",
			"bogus",
			"let x = 5",
			"mul 2 3",
			"sqrt",
			"  ",
		},
		errs: map[int]error{2: readline.ErrInterrupt},
	}

	if err := repl(context.Background(), in, rl, &stdout, &stderr); err != nil {
		t.Fatalf("repl returned error: %v", err)
	}
	if !rl.closed {
		t.Fatalf("expected line reader to be closed")
	}
	if got := stdout.String(); got != "3\n6\n" {
		t.Fatalf("stdout = %q", got)
	}
	diag := stderr.String()
	if !strings.Contains(diag, "Command not found: 'bogus'\n") {
		t.Fatalf("stderr missing unknown command report: %q", diag)
	}
	if !strings.Contains(diag, "error: std.math.sqrt") {
		t.Fatalf("stderr missing arity failure: %q", diag)
	}
	if v, _ := in.Vars().Get("x"); v != "5" {
		t.Fatalf("x = %q, want 5", v)
	}
}

func TestReplStopsOnExit(t *testing.T) {
	var stdout, stderr bytes.Buffer
	in := newReplInterpreter(&stdout, &stderr)
	rl := &scriptedReader{lines: []string{"include std.sys", "exit 4", "include std.io"}}

	err := repl(context.Background(), in, rl, &stdout, &stderr)
	var exit *stdlib.ExitError
	if !errors.As(err, &exit) || exit.Code != 4 {
		t.Fatalf("expected exit status 4, got %v", err)
	}
	if in.Registry().Has("std.io") {
		t.Fatalf("lines after exit must not run")
	}
	if code := exitStatus(nil, &stderr, err); code != 4 {
		t.Fatalf("exitStatus = %d, want 4", code)
	}
}

func TestReplReadFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	in := newReplInterpreter(&stdout, &stderr)
	rl := &scriptedReader{errs: map[int]error{0: errors.New("terminal gone")}}

	err := repl(context.Background(), in, rl, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "read line: terminal gone") {
		t.Fatalf("unexpected error: %v", err)
	}
}
