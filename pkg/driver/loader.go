package driver

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"falcon/interpreter-go/pkg/interpreter"
	"falcon/interpreter-go/pkg/library"
)

var moduleExtensions = []string{".yml", ".yaml"}

// Loader resolves `include <lib>.<mod>` to the script module <root>/<lib>/<mod>.yml
// in the first library root that has it.
type Loader struct {
	fs    afero.Fs
	roots []string
}

// NewLoader returns a loader over roots, dropping empty and repeated entries.
func NewLoader(fs afero.Fs, roots []string) *Loader {
	seen := make(map[string]struct{}, len(roots))
	unique := make([]string, 0, len(roots))
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		unique = append(unique, root)
	}
	return &Loader{fs: fs, roots: unique}
}

// Roots lists the search roots in lookup order.
func (l *Loader) Roots() []string {
	return append([]string(nil), l.roots...)
}

func (l *Loader) LoadModule(name string) (*library.Module, error) {
	lib, mod, ok := strings.Cut(name, ".")
	if !ok || !validSegment(lib) || !validSegment(mod) {
		return nil, errors.Wrapf(library.ErrModuleNotFound, "invalid module name %q", name)
	}
	for _, root := range l.roots {
		for _, ext := range moduleExtensions {
			path := filepath.Join(root, lib, mod+ext)
			data, err := afero.ReadFile(l.fs, path)
			if err != nil {
				continue
			}
			m, err := ParseScriptModule(name, data)
			if err != nil {
				return nil, errors.Wrapf(err, "module %s (%s)", name, path)
			}
			return m, nil
		}
	}
	return nil, errors.Wrapf(library.ErrModuleNotFound, "%q in %s", name, strings.Join(l.roots, ", "))
}

func validSegment(s string) bool {
	return s != "" && !strings.ContainsAny(s, `/\.`)
}

type scriptModuleFile struct {
	Commands yaml.Node `yaml:"commands"`
}

// ParseScriptModule builds a module from its YAML definition. Each command is a
// single line or a list of lines.
func ParseScriptModule(name string, data []byte) (*library.Module, error) {
	var raw scriptModuleFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse script module")
	}
	m := library.NewModule(name)
	node := &raw.Commands
	if node.Kind == 0 {
		return m, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.New("commands must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		command := strings.TrimSpace(node.Content[i].Value)
		if command == "" || strings.ContainsFunc(command, isSpaceRune) {
			return nil, errors.Errorf("invalid command name %q", node.Content[i].Value)
		}
		var lines stringList
		if err := lines.UnmarshalYAML(node.Content[i+1]); err != nil {
			return nil, errors.Wrapf(err, "command %s", command)
		}
		m.Define(library.Native{Name: command, Arity: -1, Impl: scriptCommand(lines)})
	}
	return m, nil
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// scriptCommand expands its arguments, substitutes them into each body line and
// runs the lines in the calling interpreter. The result is that of the last line
// producing text.
func scriptCommand(lines []string) library.NativeFunc {
	return func(call *library.CallContext, args []string) (library.Result, error) {
		args, err := call.ResolveArgs(args)
		if err != nil {
			return library.Void, err
		}
		subst := argumentReplacer(args)
		result := library.Void
		for _, line := range lines {
			res, err := call.Exec.ExecLine(call.Context, subst.Replace(line))
			if err != nil {
				return library.Void, err
			}
			if !res.IsVoid() {
				result = res
			}
		}
		return result, nil
	}
}

// argumentReplacer substitutes $* (all arguments), $# (their count) and $1..$N.
// Higher indexes are listed first so that $12 is not read as $1 followed by 2.
func argumentReplacer(args []string) *strings.Replacer {
	pairs := []string{"$*", strings.Join(args, " "), "$#", strconv.Itoa(len(args))}
	for n := len(args); n >= 1; n-- {
		pairs = append(pairs, "$"+strconv.Itoa(n), args[n-1])
	}
	return strings.NewReplacer(pairs...)
}

// ChainLoader consults each loader in turn, moving on only when a loader does not
// know the module.
type ChainLoader []interpreter.ModuleLoader

func (c ChainLoader) LoadModule(name string) (*library.Module, error) {
	for _, loader := range c {
		m, err := loader.LoadModule(name)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, library.ErrModuleNotFound) {
			return nil, err
		}
	}
	return nil, errors.Wrapf(library.ErrModuleNotFound, "%q", name)
}

// PackageDir is where an installed dependency lives inside the cache.
func PackageDir(cacheDir, name, version string) string {
	return filepath.Join(cacheDir, "pkg", "src", sanitizeSegment(name), pathSegment(version))
}

// pathSegment maps a version such as "main@3f2a..." to a portable directory name.
func pathSegment(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return "head"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, version)
}

// Roots gathers the library roots of a run.
type Roots struct {
	Manifest *Manifest
	Lock     *Lockfile
	CacheDir string
	// SearchPath holds extra roots separated by filepath.ListSeparator.
	SearchPath string
	WorkDir    string
}

// List returns the roots in lookup order: project roots, search path entries,
// locked dependencies and finally <workdir>/library.
func (r Roots) List() []string {
	var roots []string
	if r.Manifest != nil {
		roots = append(roots, r.Manifest.LibraryRoots()...)
	}
	for _, entry := range filepath.SplitList(r.SearchPath) {
		if entry = strings.TrimSpace(entry); entry != "" {
			roots = append(roots, entry)
		}
	}
	if r.Lock != nil && r.CacheDir != "" {
		for _, pkg := range r.Lock.Packages {
			roots = append(roots, filepath.Join(PackageDir(r.CacheDir, pkg.Name, pkg.Version), "library"))
		}
	}
	if r.WorkDir != "" {
		roots = append(roots, filepath.Join(r.WorkDir, "library"))
	}
	return roots
}
