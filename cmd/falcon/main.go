// Command falcon runs Falcon scripts, hosts an interactive session and manages
// project dependencies.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"falcon/interpreter-go/pkg/library/stdlib"
	"falcon/interpreter-go/pkg/logging"
)

const cliToolVersion = "falcon 0.1.0"

// Global carries the flags and process handles shared by every command.
type Global struct {
	LogLevel string `help:"Logging level: debug, info, warn or error." default:"warn"`
	LogType  string `help:"Log format: text, json, pretty or pretty-no-color." default:"pretty" enum:"text,json,pretty,pretty-no-color"`
	Vars     string `help:"Variable store as backend[:path] (memory, file, leveldb)." placeholder:"BACKEND[:PATH]"`
	MaxDepth int    `help:"Maximum nesting of snippets and script commands (0 keeps the project or built-in default)."`

	Context context.Context     `kong:"-"`
	Logger  *slog.Logger        `kong:"-"`
	FS      afero.Fs            `kong:"-"`
	Stdin   io.Reader           `kong:"-"`
	Stdout  io.Writer           `kong:"-"`
	Stderr  io.Writer           `kong:"-"`
	Getenv  func(string) string `kong:"-"`
}

// AfterApply configures logging once the flags are known.
func (g *Global) AfterApply() error {
	params, err := logging.ParseParameters(g.LogLevel, g.LogType)
	if err != nil {
		return err
	}
	g.Logger = logging.NewLogger(g.Stderr, params)
	g.Logger.Debug("Configured", slog.String("logging", params.String()),
		slog.String("vars", g.Vars), slog.Int("max-depth", g.MaxDepth))
	return nil
}

type cli struct {
	Global

	Run     runCmd     `cmd:"" default:"withargs" help:"Run a script file or a manifest target."`
	Repl    replCmd    `cmd:"" help:"Start an interactive session."`
	Deps    depsCmd    `cmd:"" help:"Manage project dependencies."`
	Version versionCmd `cmd:"" help:"Print the version."`
}

type versionCmd struct{}

func (versionCmd) Run(g *Global) error {
	_, err := fmt.Fprintln(g.Stdout, cliToolVersion)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

type exitRequest int

// run parses args, executes the selected command and returns the process exit
// status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) (code int) {
	var c cli
	c.Context = ctx
	c.FS = afero.NewOsFs()
	c.Stdin = stdin
	c.Stdout = stdout
	c.Stderr = stderr
	c.Getenv = getenv
	c.Logger = logging.Discard()

	defer func() {
		if r := recover(); r != nil {
			req, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			code = int(req)
		}
	}()

	parser, err := kong.New(&c,
		kong.Name("falcon"),
		kong.Description("Falcon line-oriented scripting language."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(status int) { panic(exitRequest(status)) }),
		kong.Bind(&c.Global),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "falcon: %v\n", err)
		return 1
	}
	return exitStatus(c.Logger, stderr, kctx.Run())
}

// exitStatus maps a command error to a process status, reporting it on stderr.
func exitStatus(logger *slog.Logger, stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var exit *stdlib.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	logger.Debug("Command failed", logging.Error(err))
	fmt.Fprintf(stderr, "falcon: %v\n", err)
	return 1
}
