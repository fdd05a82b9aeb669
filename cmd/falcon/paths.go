package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/driver"
)

const (
	envHome     = "FALCON_HOME"
	envPath     = "FALCON_PATH"
	envRegistry = "FALCON_REGISTRY"
)

// cacheDir is FALCON_HOME, or ~/.falcon when unset.
func (g *Global) cacheDir() (string, error) {
	if home := strings.TrimSpace(g.Getenv(envHome)); home != "" {
		return filepath.Abs(home)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "locate home directory; set FALCON_HOME")
	}
	return filepath.Join(home, ".falcon"), nil
}

// loadProject finds and parses the manifest governing start together with its
// lockfile. A directory tree without falcon.yml yields nil values and no error.
func loadProject(start string) (*driver.Manifest, *driver.Lockfile, error) {
	path, err := driver.FindManifest(start)
	if err != nil {
		if errors.Is(err, driver.ErrManifestNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	manifest, err := driver.LoadManifest(path)
	if err != nil {
		return nil, nil, err
	}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		return nil, nil, err
	}
	return manifest, lock, nil
}

// loadLockfileForManifest returns nil when the project has no lockfile yet.
func loadLockfileForManifest(manifest *driver.Manifest) (*driver.Lockfile, error) {
	if manifest == nil {
		return nil, nil
	}
	lock, err := driver.LoadLockfile(filepath.Join(manifest.Dir(), driver.LockfileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read lockfile")
	}
	return lock, nil
}
