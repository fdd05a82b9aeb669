package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"falcon/interpreter-go/pkg/vars"
)

const (
	// ManifestFileName is the project manifest looked up from the working tree.
	ManifestFileName = "falcon.yml"
	// LockfileName sits next to the manifest.
	LockfileName = "falcon.lock"
)

// Manifest represents the parsed contents of falcon.yml.
type Manifest struct {
	Path         string
	Name         string
	Version      string
	License      string
	Authors      []string
	Targets      map[string]*TargetSpec
	TargetOrder  []string
	Dependencies map[string]*DependencySpec
	LibraryPaths []string
	MaxDepth     int
	Vars         VarsConfig
}

// VarsConfig selects the variable store backing of a project.
type VarsConfig struct {
	Backend string
	Path    string
}

// TargetSpec describes a runnable script or a library declared by the manifest.
type TargetSpec struct {
	Name         string
	OriginalName string
	Type         TargetType
	Main         string
}

// TargetType enumerates supported target kinds.
type TargetType string

const (
	TargetTypeExecutable TargetType = "executable"
	TargetTypeLibrary    TargetType = "library"
)

func (t TargetType) IsValid() bool {
	return t == TargetTypeExecutable || t == TargetTypeLibrary
}

// DependencySpec describes where a dependency comes from. Exactly one of Version
// (registry), Git or Path is set.
type DependencySpec struct {
	Version  string
	Git      string
	Rev      string
	Tag      string
	Branch   string
	Path     string
	Registry string
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	return "manifest validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

var (
	ErrManifestNotFound = errors.New("manifest: falcon.yml not found")
	ErrNoDefaultTarget  = errors.New("manifest: no executable targets defined")
)

// FindManifest walks up from start looking for falcon.yml.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", errors.Wrapf(err, "manifest: resolve %s", start)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ManifestFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrManifestNotFound
		}
		dir = parent
	}
}

// LoadManifest parses and validates falcon.yml.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, errors.New("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest: resolve %s", path)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest: open %s", absPath)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.Errorf("manifest: %s is empty", absPath)
		}
		return nil, errors.Wrapf(err, "manifest: parse %s", absPath)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Dir is the project root.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Resolve interprets path relative to the project root.
func (m *Manifest) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Dir(), path)
}

// LibraryRoots lists the project's own library directories: the declared
// library_paths followed by <root>/library.
func (m *Manifest) LibraryRoots() []string {
	roots := make([]string, 0, len(m.LibraryPaths)+1)
	for _, p := range m.LibraryPaths {
		roots = append(roots, m.Resolve(p))
	}
	return append(roots, filepath.Join(m.Dir(), "library"))
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	for _, key := range m.TargetOrder {
		target := m.Targets[key]
		if !target.Type.IsValid() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("target %q has unsupported type %q", target.OriginalName, target.Type))
		}
		if target.Type == TargetTypeExecutable && target.Main == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("target %q requires an entrypoint path", target.OriginalName))
		}
	}
	for _, name := range sortedKeys(m.Dependencies) {
		for _, issue := range m.Dependencies[name].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: %s", name, issue))
		}
	}
	if m.MaxDepth < 0 {
		errs.Issues = append(errs.Issues, "max_depth must not be negative")
	}
	switch m.Vars.Backend {
	case "", vars.BackendMemory:
	case vars.BackendFile, vars.BackendLevelDB:
		if m.Vars.Path == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("vars.path must be provided for the %s backend", m.Vars.Backend))
		}
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("vars.backend %q is not one of memory, file, leveldb", m.Vars.Backend))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// DefaultTarget returns the first executable target in manifest order.
func (m *Manifest) DefaultTarget() (*TargetSpec, error) {
	if m == nil {
		return nil, ErrNoDefaultTarget
	}
	for _, key := range m.TargetOrder {
		if target := m.Targets[key]; target.Type == TargetTypeExecutable {
			return target, nil
		}
	}
	return nil, ErrNoDefaultTarget
}

// FindTarget looks up a target by sanitized or original name, ignoring case.
func (m *Manifest) FindTarget(name string) (*TargetSpec, bool) {
	if m == nil {
		return nil, false
	}
	name = strings.TrimSpace(name)
	if target, ok := m.Targets[sanitizeSegment(name)]; ok {
		return target, true
	}
	for _, key := range m.TargetOrder {
		if target := m.Targets[key]; strings.EqualFold(target.OriginalName, name) {
			return target, true
		}
	}
	return nil, false
}

func (d *DependencySpec) validate() []string {
	var issues []string
	if d.Path != "" && (d.Version != "" || d.Git != "") {
		issues = append(issues, "path dependencies cannot specify version or git source")
	}
	if d.Git != "" && d.Version != "" {
		issues = append(issues, "git dependencies cannot also specify version")
	}
	if d.Registry != "" && (d.Git != "" || d.Path != "") {
		issues = append(issues, "registry overrides apply only to version dependencies")
	}
	refs := 0
	for _, ref := range []string{d.Rev, d.Tag, d.Branch} {
		if ref != "" {
			refs++
		}
	}
	if refs > 0 && d.Git == "" {
		issues = append(issues, "rev, tag and branch require a git source")
	}
	if refs > 1 {
		issues = append(issues, "only one of rev, tag or branch may be given")
	}
	if d.Version == "" && d.Git == "" && d.Path == "" {
		issues = append(issues, "must specify version, git, or path")
	}
	if d.Version != "" && !versionPattern.MatchString(d.Version) {
		issues = append(issues, fmt.Sprintf("invalid version %q", d.Version))
	}
	return issues
}

var versionPattern = regexp.MustCompile(`^v?[0-9]+(\.[0-9]+){0,2}([0-9A-Za-z\-+.]*)$`)

var segmentReplacer = strings.NewReplacer("-", "_", " ", "_", ".", "_")

// sanitizeSegment turns a display name into an identifier-like key.
func sanitizeSegment(s string) string {
	return segmentReplacer.Replace(strings.TrimSpace(s))
}

type manifestFile struct {
	Name         string        `yaml:"name"`
	Version      string        `yaml:"version"`
	License      string        `yaml:"license"`
	Authors      stringList    `yaml:"authors"`
	Targets      targetMap     `yaml:"targets"`
	Dependencies dependencyMap `yaml:"dependencies"`
	LibraryPaths stringList    `yaml:"library_paths"`
	MaxDepth     int           `yaml:"max_depth"`
	Vars         struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"vars"`
}

type targetYAML struct {
	Type TargetType `yaml:"type"`
	Main string     `yaml:"main"`
}

type targetMapEntry struct {
	name string
	spec targetYAML
}

// targetMap keeps the declaration order; a scalar value is shorthand for an
// executable target with that entrypoint.
type targetMap []targetMapEntry

func (tm *targetMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*tm = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return errors.New("manifest: targets must be a mapping")
	}
	items := make(targetMap, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := strings.TrimSpace(value.Content[i].Value)
		if key == "" {
			return errors.New("manifest: targets must not use empty keys")
		}
		node := value.Content[i+1]
		var spec targetYAML
		switch node.Kind {
		case yaml.ScalarNode:
			spec = targetYAML{Type: TargetTypeExecutable, Main: node.Value}
		case yaml.MappingNode:
			if err := node.Decode(&spec); err != nil {
				return errors.Wrapf(err, "manifest: target %q", key)
			}
			if spec.Type == "" {
				spec.Type = TargetTypeExecutable
			}
		default:
			return errors.Errorf("manifest: target %q must be a path or a mapping", key)
		}
		items = append(items, targetMapEntry{name: key, spec: spec})
	}
	*tm = items
	return nil
}

type dependencyMap map[string]*DependencySpec

func (dm *dependencyMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*dm = dependencyMap{}
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return errors.New("manifest: dependencies must be a mapping")
	}
	result := make(dependencyMap, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := strings.TrimSpace(value.Content[i].Value)
		if key == "" {
			return errors.New("manifest: dependency names must be non-empty")
		}
		dep, err := decodeDependency(value.Content[i+1])
		if err != nil {
			return errors.Wrapf(err, "manifest: dependency %q", key)
		}
		result[key] = dep
	}
	*dm = result
	return nil
}

func decodeDependency(node *yaml.Node) (*DependencySpec, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return &DependencySpec{}, nil
		}
		return &DependencySpec{Version: strings.TrimSpace(node.Value)}, nil
	case yaml.MappingNode:
		var raw struct {
			Version  string `yaml:"version"`
			Git      string `yaml:"git"`
			Rev      string `yaml:"rev"`
			Tag      string `yaml:"tag"`
			Branch   string `yaml:"branch"`
			Path     string `yaml:"path"`
			Registry string `yaml:"registry"`
		}
		if err := node.Decode(&raw); err != nil {
			return nil, err
		}
		return &DependencySpec{
			Version:  strings.TrimSpace(raw.Version),
			Git:      strings.TrimSpace(raw.Git),
			Rev:      strings.TrimSpace(raw.Rev),
			Tag:      strings.TrimSpace(raw.Tag),
			Branch:   strings.TrimSpace(raw.Branch),
			Path:     strings.TrimSpace(raw.Path),
			Registry: strings.TrimSpace(raw.Registry),
		}, nil
	case yaml.AliasNode:
		return decodeDependency(node.Alias)
	default:
		return nil, errors.Errorf("expected string or mapping, found %s", node.ShortTag())
	}
}

type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*l = nil
			return nil
		}
		*l = stringList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		items := make(stringList, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			if str = strings.TrimSpace(str); str != "" {
				items = append(items, str)
			}
		}
		*l = items
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	default:
		return errors.Errorf("manifest: expected string or sequence but found %s", value.ShortTag())
	}
}

func (mf manifestFile) toManifest(path string) *Manifest {
	result := &Manifest{
		Path:         path,
		Name:         sanitizeSegment(mf.Name),
		Version:      strings.TrimSpace(mf.Version),
		License:      strings.TrimSpace(mf.License),
		Authors:      append([]string(nil), mf.Authors...),
		Targets:      make(map[string]*TargetSpec, len(mf.Targets)),
		TargetOrder:  make([]string, 0, len(mf.Targets)),
		Dependencies: map[string]*DependencySpec(mf.Dependencies),
		LibraryPaths: append([]string(nil), mf.LibraryPaths...),
		MaxDepth:     mf.MaxDepth,
		Vars: VarsConfig{
			Backend: strings.ToLower(strings.TrimSpace(mf.Vars.Backend)),
			Path:    strings.TrimSpace(mf.Vars.Path),
		},
	}
	if result.Dependencies == nil {
		result.Dependencies = map[string]*DependencySpec{}
	}
	for _, item := range mf.Targets {
		key := sanitizeSegment(item.name)
		if _, exists := result.Targets[key]; exists {
			continue
		}
		result.Targets[key] = &TargetSpec{
			Name:         key,
			OriginalName: item.name,
			Type:         item.spec.Type,
			Main:         strings.TrimSpace(item.spec.Main),
		}
		result.TargetOrder = append(result.TargetOrder, key)
	}
	return result
}
