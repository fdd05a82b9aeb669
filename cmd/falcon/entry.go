package main

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"falcon/interpreter-go/pkg/driver"
	"falcon/interpreter-go/pkg/logging"
)

const scriptExtension = ".fa"

type runCmd struct {
	Target string   `arg:"" optional:"" help:"Manifest target or script file; defaults to the first executable target."`
	Args   []string `arg:"" optional:"" passthrough:"" help:"Arguments exposed to the program."`
}

func (r *runCmd) Run(g *Global) error {
	entry, manifest, lock, err := r.resolve()
	if err != nil {
		return err
	}
	src, err := afero.ReadFile(g.FS, entry)
	if err != nil {
		return errors.Wrapf(err, "read %s", entry)
	}

	s, err := g.newSession(manifest, lock, r.Args)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			g.Logger.Error("Failed to close variable store", logging.Error(cerr))
		}
	}()

	g.Logger.Debug("Running", slog.String("entry", entry), slog.Any("args", r.Args))
	return errors.Wrap(s.Run(g.Context, string(src)), filepath.Base(entry))
}

// resolve picks the script to run. A target name is looked up in the manifest of
// the working directory; anything else is a script path, governed by the manifest
// found above it, if any.
func (r *runCmd) resolve() (string, *driver.Manifest, *driver.Lockfile, error) {
	manifest, lock, err := loadProject(".")
	if err != nil && (r.Target == "" || !looksLikeScript(r.Target)) {
		return "", nil, nil, err
	}

	if r.Target == "" {
		if manifest == nil {
			return "", nil, nil, errors.New("run requires a manifest target or script file (falcon.yml not found)")
		}
		target, err := manifest.DefaultTarget()
		if err != nil {
			return "", nil, nil, err
		}
		return manifest.Resolve(target.Main), manifest, lock, nil
	}

	if manifest != nil && !looksLikeScript(r.Target) {
		if target, ok := manifest.FindTarget(r.Target); ok {
			if target.Main == "" {
				return "", nil, nil, errors.Errorf("target %q has no entrypoint", target.OriginalName)
			}
			return manifest.Resolve(target.Main), manifest, lock, nil
		}
	}

	entry, err := filepath.Abs(r.Target)
	if err != nil {
		return "", nil, nil, errors.Wrapf(err, "resolve %s", r.Target)
	}
	manifest, lock, err = loadProject(filepath.Dir(entry))
	if err != nil {
		return "", nil, nil, err
	}
	return entry, manifest, lock, nil
}

func looksLikeScript(arg string) bool {
	return strings.HasSuffix(arg, scriptExtension) || strings.ContainsRune(arg, filepath.Separator)
}
