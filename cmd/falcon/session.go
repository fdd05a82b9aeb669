package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/driver"
	"falcon/interpreter-go/pkg/interpreter"
	"falcon/interpreter-go/pkg/library/stdlib"
	"falcon/interpreter-go/pkg/logging"
	"falcon/interpreter-go/pkg/vars"
)

// session is an interpreter wired to a project's libraries and variable store.
type session struct {
	*interpreter.Interpreter
	store vars.Store
}

func (s *session) Close() error {
	return s.store.Close()
}

// newSession builds an interpreter for a run. Flags take precedence over the
// manifest for the variable store and the nesting limit.
func (g *Global) newSession(manifest *driver.Manifest, lock *driver.Lockfile, programArgs []string) (*session, error) {
	store, err := g.openVars(manifest)
	if err != nil {
		return nil, err
	}

	cacheDir, err := g.cacheDir()
	if err != nil {
		g.Logger.Warn("Locked dependencies are not searched", logging.Error(err))
		cacheDir = ""
	}
	workDir, err := os.Getwd()
	if err != nil {
		workDir = ""
	}
	roots := driver.Roots{
		Manifest:   manifest,
		Lock:       lock,
		CacheDir:   cacheDir,
		SearchPath: g.Getenv(envPath),
		WorkDir:    workDir,
	}.List()
	scripts := driver.NewLoader(g.FS, roots)
	g.Logger.Debug("Libraries", slog.Any("builtins", stdlib.Names()), slog.Any("roots", scripts.Roots()))

	maxDepth := g.MaxDepth
	if maxDepth == 0 && manifest != nil {
		maxDepth = manifest.MaxDepth
	}

	in := interpreter.New(
		interpreter.WithVars(store),
		interpreter.WithLoader(driver.ChainLoader{stdlib.Loader{}, scripts}),
		interpreter.WithStdout(g.Stdout),
		interpreter.WithStdin(g.Stdin),
		interpreter.WithDiagnostics(g.Stderr),
		interpreter.WithLogger(g.Logger),
		interpreter.WithMaxDepth(maxDepth),
		interpreter.WithProgramArgs(programArgs),
	)
	return &session{Interpreter: in, store: store}, nil
}

// openVars opens the store named by --vars, else the manifest's vars section,
// else an in-memory store.
func (g *Global) openVars(manifest *driver.Manifest) (vars.Store, error) {
	backend, path := vars.ParseSpec(g.Vars)
	if g.Vars == "" && manifest != nil {
		backend, path = manifest.Vars.Backend, manifest.Resolve(manifest.Vars.Path)
	}
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve vars path %s", path)
		}
		path = abs
		if backend == vars.BackendFile {
			if err := g.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, errors.Wrap(err, "create vars directory")
			}
		}
	}
	store, err := vars.Open(g.FS, backend, path)
	if err != nil {
		return nil, errors.Wrap(err, "open variable store")
	}
	g.Logger.Debug("Variable store opened", slog.String("backend", backend), slog.String("path", path))
	return store, nil
}
