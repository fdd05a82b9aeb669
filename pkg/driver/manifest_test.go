package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadManifestBasic(t *testing.T) {
	path := writeManifest(t, `
name: falcon-demo
version: "0.1.0"
license: MIT
authors:
  - Grace
  - Ada
targets:
  app: src/main.fa
  tools:
    type: library
dependencies:
  textutil: "1.2.0"
  colors:
    git: https://github.com/example/colors.git
    tag: v1.0.0
  local:
    path: ../local
library_paths:
  - lib
  - /opt/falcon/library
max_depth: 16
vars:
  backend: LevelDB
  path: .falcon/vars
`)

	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest returned error: %v", err)
	}

	if got, want := manifest.Name, "falcon_demo"; got != want {
		t.Fatalf("Name = %q, want %q", got, want)
	}
	if got := manifest.Version; got != "0.1.0" {
		t.Fatalf("Version = %q, want 0.1.0", got)
	}
	if len(manifest.Authors) != 2 || manifest.Authors[0] != "Grace" || manifest.Authors[1] != "Ada" {
		t.Fatalf("Authors unexpected: %#v", manifest.Authors)
	}

	target, ok := manifest.Targets["app"]
	if !ok {
		t.Fatalf("Targets missing app entry: %#v", manifest.Targets)
	}
	if target.Main != "src/main.fa" || target.Type != TargetTypeExecutable {
		t.Fatalf("app target unexpected: %#v", target)
	}
	if tools := manifest.Targets["tools"]; tools == nil || tools.Type != TargetTypeLibrary {
		t.Fatalf("tools target unexpected: %#v", tools)
	}
	if got := strings.Join(manifest.TargetOrder, ","); got != "app,tools" {
		t.Fatalf("TargetOrder unexpected: %s", got)
	}

	if dep := manifest.Dependencies["textutil"]; dep == nil || dep.Version != "1.2.0" {
		t.Fatalf("textutil dependency not parsed: %#v", dep)
	}
	if dep := manifest.Dependencies["colors"]; dep == nil || dep.Git == "" || dep.Tag != "v1.0.0" {
		t.Fatalf("git dependency not parsed: %#v", dep)
	}
	if dep := manifest.Dependencies["local"]; dep == nil || dep.Path != "../local" {
		t.Fatalf("path dependency missing: %#v", dep)
	}

	if manifest.MaxDepth != 16 {
		t.Fatalf("MaxDepth = %d, want 16", manifest.MaxDepth)
	}
	if manifest.Vars.Backend != "leveldb" || manifest.Vars.Path != ".falcon/vars" {
		t.Fatalf("Vars unexpected: %#v", manifest.Vars)
	}

	dir := filepath.Dir(path)
	roots := manifest.LibraryRoots()
	want := []string{filepath.Join(dir, "lib"), "/opt/falcon/library", filepath.Join(dir, "library")}
	if strings.Join(roots, "|") != strings.Join(want, "|") {
		t.Fatalf("LibraryRoots = %v, want %v", roots, want)
	}
	if got := manifest.Resolve("src/main.fa"); got != filepath.Join(dir, "src/main.fa") {
		t.Fatalf("Resolve = %q", got)
	}
}

func TestLoadManifestValidation(t *testing.T) {
	path := writeManifest(t, `
name: ""
targets:
  cli:
    type: service
    main: src/main.fa
dependencies:
  util: {}
  both:
    path: ../both
    version: "1.0"
  pinned:
    version: "1.0"
    tag: v1
max_depth: -1
vars:
  backend: redis
`)
	_, err := LoadManifest(path)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	msg := err.Error()
	wantFragments := []string{
		"name must be provided",
		`target "cli" has unsupported type "service"`,
		"dependencies.util: must specify version, git, or path",
		"dependencies.both: path dependencies cannot specify version or git source",
		"dependencies.pinned: rev, tag and branch require a git source",
		"max_depth must not be negative",
		`vars.backend "redis" is not one of memory, file, leveldb`,
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("validation error missing fragment %q: %s", fragment, msg)
		}
	}
}

func TestLoadManifestVarsPathRequired(t *testing.T) {
	path := writeManifest(t, `
name: demo
vars:
  backend: file
`)
	_, err := LoadManifest(path)
	if err == nil || !strings.Contains(err.Error(), "vars.path must be provided for the file backend") {
		t.Fatalf("expected vars.path error, got %v", err)
	}
}

func TestLoadManifestUnknownField(t *testing.T) {
	path := writeManifest(t, `
name: demo
workspace: {}
`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected unknown field error, got nil")
	}
}

func TestLoadManifestTargetEntrypointRequired(t *testing.T) {
	path := writeManifest(t, `
name: demo
targets:
  cli: ""
`)

	_, err := LoadManifest(path)
	if err == nil {
		t.Fatal("expected error for empty target entrypoint, got nil")
	}
	if !strings.Contains(err.Error(), `target "cli" requires an entrypoint path`) {
		t.Fatalf("expected entrypoint error, got %v", err)
	}
}

func TestManifestDefaultTarget(t *testing.T) {
	path := writeManifest(t, `
name: demo
targets:
  shared:
    type: library
  app-server: src/app.fa
  lint: scripts/lint.fa
  Worker: src/worker.fa
`)

	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest error: %v", err)
	}

	target, err := manifest.DefaultTarget()
	if err != nil {
		t.Fatalf("DefaultTarget returned error: %v", err)
	}
	if target.OriginalName != "app-server" {
		t.Fatalf("DefaultTarget = %q, want app-server", target.OriginalName)
	}
	if target.Main != "src/app.fa" {
		t.Fatalf("Default target main mismatch: %s", target.Main)
	}

	wantOrder := []string{"shared", "app_server", "lint", "Worker"}
	if got := manifest.TargetOrder; strings.Join(got, ",") != strings.Join(wantOrder, ",") {
		t.Fatalf("TargetOrder = %v, want %v", got, wantOrder)
	}
}

func TestManifestWithoutExecutableTarget(t *testing.T) {
	path := writeManifest(t, "name: demo\n")
	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest error: %v", err)
	}
	if _, err := manifest.DefaultTarget(); !errors.Is(err, ErrNoDefaultTarget) {
		t.Fatalf("DefaultTarget error = %v, want ErrNoDefaultTarget", err)
	}
}

func TestManifestFindTarget(t *testing.T) {
	path := writeManifest(t, `
name: demo
targets:
  app-server: src/app.fa
  helper: src/helper.fa
`)

	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest error: %v", err)
	}

	if target, ok := manifest.FindTarget("app-server"); !ok || target == nil || target.OriginalName != "app-server" {
		t.Fatalf("FindTarget app-server failed: %#v", target)
	}
	if target, ok := manifest.FindTarget("app_server"); !ok || target == nil || target.OriginalName != "app-server" {
		t.Fatalf("FindTarget sanitized app_server failed: %#v", target)
	}
	if target, ok := manifest.FindTarget("APP-SERVER"); !ok || target == nil || target.OriginalName != "app-server" {
		t.Fatalf("FindTarget case-insensitive lookup failed: %#v", target)
	}
	if target, ok := manifest.FindTarget("missing"); ok || target != nil {
		t.Fatalf("FindTarget missing should be nil, got %#v", target)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	path := writeManifest(t, "name: demo\n")
	nested := filepath.Join(filepath.Dir(path), "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	script := filepath.Join(nested, "main.fa")
	if err := os.WriteFile(script, []byte("let x=1\n"), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}

	for _, start := range []string{nested, script} {
		got, err := FindManifest(start)
		if err != nil {
			t.Fatalf("FindManifest(%s) error: %v", start, err)
		}
		if got != path {
			t.Fatalf("FindManifest(%s) = %q, want %q", start, got, path)
		}
	}

	if _, err := FindManifest(t.TempDir()); !errors.Is(err, ErrManifestNotFound) {
		t.Fatalf("FindManifest in empty dir = %v, want ErrManifestNotFound", err)
	}
}

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}
