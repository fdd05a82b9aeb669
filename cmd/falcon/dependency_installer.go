package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"falcon/interpreter-go/pkg/driver"
)

// dependencyInstaller resolves the dependency graph of a manifest into the cache
// and records the result in a lockfile.
type dependencyInstaller struct {
	manifest    *driver.Manifest
	cacheDir    string
	registryDir string
	fs          afero.Fs
	git         *gitFetcher
	logs        []string
}

func newDependencyInstaller(manifest *driver.Manifest, cacheDir string) *dependencyInstaller {
	return &dependencyInstaller{
		manifest: manifest,
		cacheDir: cacheDir,
		fs:       afero.NewOsFs(),
		git:      newGitFetcher(cacheDir),
	}
}

type resolvedPackage struct {
	pkg *driver.LockedPackage
	// dir is where relative path dependencies of the package are resolved from.
	dir string
}

// Install resolves every dependency reachable from the manifest, refreshes lock
// and reports whether its package set changed. Git and registry packages already
// present in lock and in the cache are reused; path packages are always synced.
func (d *dependencyInstaller) Install(lock *driver.Lockfile) (bool, []string, error) {
	d.logs = nil
	resolved := make(map[string]*resolvedPackage)
	for _, name := range sortedDependencyNames(d.manifest.Dependencies) {
		if _, err := d.resolve(name, d.manifest.Dependencies[name], d.manifest.Dir(), lock, resolved); err != nil {
			return false, d.logs, err
		}
	}

	changed := false
	for _, name := range sortedResolvedNames(resolved) {
		pkg := resolved[name].pkg
		if existing, ok := lock.Find(name); !ok || !samePackage(existing, pkg) {
			changed = true
		}
		lock.Upsert(pkg)
	}
	for _, pkg := range append([]*driver.LockedPackage(nil), lock.Packages...) {
		if _, ok := resolved[pkg.Name]; !ok {
			lock.Remove(pkg.Name)
			d.logf("removed %s %s", pkg.Name, pkg.Version)
			changed = true
		}
	}
	return changed, d.logs, nil
}

func (d *dependencyInstaller) resolve(name string, spec *driver.DependencySpec, baseDir string, lock *driver.Lockfile, resolved map[string]*resolvedPackage) (*driver.LockedPackage, error) {
	key := driver.PackageName(name)
	if r, ok := resolved[key]; ok {
		return r.pkg, nil
	}

	var (
		r   *resolvedPackage
		err error
	)
	switch {
	case spec.Path != "":
		r, err = d.fetchPath(key, spec, baseDir)
	case spec.Git != "":
		r, err = d.reuseOr(key, spec, lock, func() (*resolvedPackage, error) { return d.git.Fetch(key, spec) })
	case spec.Version != "":
		r, err = d.reuseOr(key, spec, lock, func() (*resolvedPackage, error) { return d.fetchRegistry(key, spec) })
	default:
		err = errors.New("no source")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dependency %s", name)
	}
	r.pkg.Dependencies = nil
	resolved[key] = r
	d.logf("resolved %s %s (%s)", r.pkg.Name, r.pkg.Version, r.pkg.Source)

	installed := driver.PackageDir(d.cacheDir, r.pkg.Name, r.pkg.Version)
	depManifest, err := d.loadPackageManifest(installed)
	if err != nil {
		return nil, errors.Wrapf(err, "dependency %s", name)
	}
	if depManifest == nil {
		return r.pkg, nil
	}
	for _, child := range sortedDependencyNames(depManifest.Dependencies) {
		childPkg, err := d.resolve(child, depManifest.Dependencies[child], r.dir, lock, resolved)
		if err != nil {
			return nil, err
		}
		r.pkg.Dependencies = append(r.pkg.Dependencies, driver.LockedDependency{Name: childPkg.Name, Version: childPkg.Version})
	}
	return r.pkg, nil
}

// reuseOr returns the locked entry for name when it still matches spec and is
// installed, and calls fetch otherwise.
func (d *dependencyInstaller) reuseOr(name string, spec *driver.DependencySpec, lock *driver.Lockfile, fetch func() (*resolvedPackage, error)) (*resolvedPackage, error) {
	if locked, ok := lock.Find(name); ok && d.lockMatches(locked, spec) {
		dir := driver.PackageDir(d.cacheDir, locked.Name, locked.Version)
		if info, err := d.fs.Stat(dir); err == nil && info.IsDir() {
			pkg := *locked
			return &resolvedPackage{pkg: &pkg, dir: dir}, nil
		}
	}
	return fetch()
}

func (d *dependencyInstaller) lockMatches(locked *driver.LockedPackage, spec *driver.DependencySpec) bool {
	switch {
	case spec.Git != "":
		if !strings.HasPrefix(locked.Source, "git+"+spec.Git+"@") {
			return false
		}
		_, descriptor := gitRevisionFromSpec(spec)
		return locked.Version == descriptor || strings.HasPrefix(locked.Version, descriptor+"@")
	default:
		return locked.Version == spec.Version && locked.Source == registrySource(registryName(spec), locked.Name, spec.Version)
	}
}

func (d *dependencyInstaller) fetchPath(name string, spec *driver.DependencySpec, baseDir string) (*resolvedPackage, error) {
	src := spec.Path
	if !filepath.IsAbs(src) {
		src = filepath.Join(baseDir, src)
	}
	src, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}
	if info, err := d.fs.Stat(src); err != nil || !info.IsDir() {
		return nil, errors.Errorf("path %s is not a directory", src)
	}
	version := "0.0.0"
	m, err := d.loadPackageManifest(src)
	if err != nil {
		return nil, err
	}
	if m != nil && m.Version != "" {
		version = m.Version
	}
	return d.install(name, version, src, "path:"+src, src)
}

func (d *dependencyInstaller) fetchRegistry(name string, spec *driver.DependencySpec) (*resolvedPackage, error) {
	root := d.registryDir
	if root == "" {
		root = filepath.Join(d.cacheDir, "registry")
	}
	registry := registryName(spec)
	src := filepath.Join(root, registry, name, spec.Version)
	if info, err := d.fs.Stat(src); err != nil || !info.IsDir() {
		return nil, errors.Errorf("registry: package %s@%s not found in %s", name, spec.Version, src)
	}
	return d.install(name, spec.Version, src, registrySource(registry, name, spec.Version), driver.PackageDir(d.cacheDir, name, spec.Version))
}

// install copies src into the cache and builds the lock entry.
func (d *dependencyInstaller) install(name, version, src, source, dir string) (*resolvedPackage, error) {
	dest := driver.PackageDir(d.cacheDir, name, version)
	if err := syncDir(d.fs, src, dest); err != nil {
		return nil, errors.Wrapf(err, "copy %s -> %s", src, dest)
	}
	checksum, err := dirChecksum(d.fs, dest)
	if err != nil {
		return nil, err
	}
	return &resolvedPackage{
		pkg: &driver.LockedPackage{
			Name:     name,
			Version:  version,
			Source:   source,
			Checksum: checksum,
		},
		dir: dir,
	}, nil
}

// loadPackageManifest returns nil when dir has no falcon.yml.
func (d *dependencyInstaller) loadPackageManifest(dir string) (*driver.Manifest, error) {
	path := filepath.Join(dir, driver.ManifestFileName)
	if _, err := d.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return driver.LoadManifest(path)
}

func (d *dependencyInstaller) logf(format string, args ...any) {
	d.logs = append(d.logs, fmt.Sprintf(format, args...))
}

func registryName(spec *driver.DependencySpec) string {
	if spec.Registry != "" {
		return spec.Registry
	}
	return "default"
}

func registrySource(registry, name, version string) string {
	return fmt.Sprintf("registry:%s/%s/%s", registry, name, version)
}

func samePackage(a, b *driver.LockedPackage) bool {
	if a.Version != b.Version || a.Source != b.Source || a.Checksum != b.Checksum || len(a.Dependencies) != len(b.Dependencies) {
		return false
	}
	for i := range a.Dependencies {
		if a.Dependencies[i] != b.Dependencies[i] {
			return false
		}
	}
	return true
}

func sortedDependencyNames(deps map[string]*driver.DependencySpec) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedResolvedNames(resolved map[string]*resolvedPackage) []string {
	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
