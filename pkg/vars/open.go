package vars

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Backend names accepted by Open.
const (
	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
)

// Open creates a store from a backend name and an optional path. Relative paths are
// used as given; callers resolve them against the project directory first.
func Open(fs afero.Fs, backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		if path == "" {
			return nil, errors.New("vars: file backend requires a path")
		}
		return OpenFile(fs, path)
	case BackendLevelDB:
		if path == "" {
			return nil, errors.New("vars: leveldb backend requires a path")
		}
		return OpenLevelDB(path)
	default:
		return nil, errors.Errorf("vars: unknown backend %q", backend)
	}
}

// ParseSpec splits a "backend[:path]" flag value.
func ParseSpec(spec string) (backend, path string) {
	backend, path, _ = strings.Cut(strings.TrimSpace(spec), ":")
	return backend, path
}
