package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Lockfile models falcon.lock: the dependencies resolved for a project.
type Lockfile struct {
	Path      string
	Root      string
	Generated string
	Tool      string
	Packages  []*LockedPackage
}

// LockedPackage is one resolved dependency. Source is "path:<dir>",
// "git+<url>@<commit>" or "registry:<registry>/<name>/<version>"; Checksum is
// "sha256:<hex>" over the installed tree.
type LockedPackage struct {
	Name         string
	Version      string
	Source       string
	Checksum     string
	Dependencies []LockedDependency
}

// LockedDependency is an edge of the resolved graph.
type LockedDependency struct {
	Name    string
	Version string
}

var now = time.Now

// NewLockfile returns an empty lockfile for the named project.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      sanitizeSegment(root),
		Generated: now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
	}
}

// LoadLockfile parses falcon.lock. A missing file yields an error matching
// os.ErrNotExist.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, errors.New("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "lockfile: resolve %s", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	var raw lockfileDisk
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.Wrapf(err, "lockfile: parse %s", abs)
	}
	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile stores lock at path, or at lock.Path when path is empty.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return errors.New("lockfile: nil lockfile")
	}
	if path == "" {
		path = lock.Path
	}
	if path == "" {
		return errors.New("lockfile: missing path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "lockfile: resolve %s", path)
	}
	if lock.Generated == "" {
		lock.Generated = now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return errors.Wrapf(err, "lockfile: marshal %s", abs)
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "lockfile: encoder close")
	}
	return errors.Wrapf(os.WriteFile(abs, buf.Bytes(), 0o644), "lockfile: write %s", abs)
}

// Find returns the locked package called name.
func (l *Lockfile) Find(name string) (*LockedPackage, bool) {
	if l == nil {
		return nil, false
	}
	name = sanitizeSegment(name)
	for _, pkg := range l.Packages {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return nil, false
}

// Upsert adds pkg or replaces the entry with the same name.
func (l *Lockfile) Upsert(pkg *LockedPackage) {
	pkg.Name = sanitizeSegment(pkg.Name)
	for i, existing := range l.Packages {
		if existing.Name == pkg.Name {
			l.Packages[i] = pkg
			return
		}
	}
	l.Packages = append(l.Packages, pkg)
	l.normalize()
}

// Remove drops the named packages, or every package when names is empty, and
// reports how many entries went away.
func (l *Lockfile) Remove(names ...string) int {
	if len(names) == 0 {
		n := len(l.Packages)
		l.Packages = nil
		return n
	}
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[sanitizeSegment(name)] = struct{}{}
	}
	kept := l.Packages[:0]
	for _, pkg := range l.Packages {
		if _, ok := drop[pkg.Name]; !ok {
			kept = append(kept, pkg)
		}
	}
	removed := len(l.Packages) - len(kept)
	l.Packages = kept
	return removed
}

func (l *Lockfile) normalize() {
	sort.SliceStable(l.Packages, func(i, j int) bool {
		return l.Packages[i].Name < l.Packages[j].Name
	})
	for _, pkg := range l.Packages {
		sort.SliceStable(pkg.Dependencies, func(i, j int) bool {
			return pkg.Dependencies[i].Name < pkg.Dependencies[j].Name
		})
	}
}

type lockfileDisk struct {
	Root      string            `yaml:"root"`
	Generated string            `yaml:"generated"`
	Tool      string            `yaml:"tool"`
	Packages  []lockfilePackage `yaml:"packages"`
}

type lockfilePackage struct {
	Name         string               `yaml:"name"`
	Version      string               `yaml:"version"`
	Source       string               `yaml:"source"`
	Checksum     string               `yaml:"checksum"`
	Dependencies []lockfileDependency `yaml:"dependencies,omitempty"`
}

type lockfileDependency struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

func (l *Lockfile) toDisk() lockfileDisk {
	out := lockfileDisk{Root: l.Root, Generated: l.Generated, Tool: l.Tool}
	for _, pkg := range l.Packages {
		entry := lockfilePackage{Name: pkg.Name, Version: pkg.Version, Source: pkg.Source, Checksum: pkg.Checksum}
		for _, dep := range pkg.Dependencies {
			entry.Dependencies = append(entry.Dependencies, lockfileDependency(dep))
		}
		out.Packages = append(out.Packages, entry)
	}
	return out
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Root:      sanitizeSegment(d.Root),
		Generated: strings.TrimSpace(d.Generated),
		Tool:      strings.TrimSpace(d.Tool),
	}
	for _, pkg := range d.Packages {
		entry := &LockedPackage{
			Name:     sanitizeSegment(pkg.Name),
			Version:  strings.TrimSpace(pkg.Version),
			Source:   strings.TrimSpace(pkg.Source),
			Checksum: strings.TrimSpace(pkg.Checksum),
		}
		for _, dep := range pkg.Dependencies {
			entry.Dependencies = append(entry.Dependencies, LockedDependency{
				Name:    sanitizeSegment(dep.Name),
				Version: strings.TrimSpace(dep.Version),
			})
		}
		lock.Packages = append(lock.Packages, entry)
	}
	lock.normalize()
	return lock
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PackageName is the key a dependency name is locked and cached under.
func PackageName(name string) string {
	return sanitizeSegment(name)
}
