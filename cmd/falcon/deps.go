package main

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/driver"
)

type depsCmd struct {
	Install depsInstallCmd `cmd:"" help:"Install the dependencies recorded in falcon.yml."`
	Update  depsUpdateCmd  `cmd:"" help:"Re-resolve the named dependencies, or all of them."`
}

type depsInstallCmd struct{}

func (depsInstallCmd) Run(g *Global) error {
	return g.installDependencies(nil, false)
}

type depsUpdateCmd struct {
	Names []string `arg:"" optional:"" help:"Dependencies to refresh."`
}

func (u *depsUpdateCmd) Run(g *Global) error {
	return g.installDependencies(u.Names, true)
}

func (g *Global) installDependencies(refresh []string, update bool) error {
	manifest, lock, err := loadProject(".")
	if err != nil {
		return err
	}
	if manifest == nil {
		return errors.New("deps requires a falcon.yml in the current directory or above")
	}
	cacheDir, err := g.cacheDir()
	if err != nil {
		return err
	}
	if lock == nil {
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
	}
	removed := 0
	if update {
		removed = lock.Remove(refresh...)
	}

	installer := newDependencyInstaller(manifest, cacheDir)
	installer.registryDir = g.Getenv(envRegistry)
	changed, logs, err := installer.Install(lock)
	for _, line := range logs {
		fmt.Fprintln(g.Stdout, line)
	}
	if err != nil {
		return err
	}
	if !changed && removed == 0 {
		fmt.Fprintln(g.Stdout, "dependencies up to date")
		return nil
	}
	lock.Tool = cliToolVersion
	path := filepath.Join(manifest.Dir(), driver.LockfileName)
	if err := driver.WriteLockfile(lock, path); err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "wrote %s\n", path)
	return nil
}
