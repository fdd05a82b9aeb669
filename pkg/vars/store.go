// Package vars provides the variable stores used by the Falcon interpreter.
//
// Every store maps a variable name to a string value. Numeric interpretation happens
// lazily in the expression evaluator; stores never inspect values. Looking up a name
// that was never assigned yields the empty string and no error.
package vars

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Store is the backing for interpreter variables.
type Store interface {
	// Get returns the value bound to name, or "" when name is unbound.
	Get(name string) (string, error)
	// Set binds name to value, replacing any previous binding.
	Set(name, value string) error
	// Names lists the bound names in sorted order.
	Names() ([]string, error)
	// Close releases resources held by the store.
	Close() error
}

var ErrInvalidName = errors.New("invalid variable name")

// ValidateName rejects names the line-oriented syntax cannot express.
func ValidateName(name string) error {
	if name == "" {
		return errors.Wrap(ErrInvalidName, "empty name")
	}
	if strings.IndexFunc(name, isSpace) >= 0 {
		return errors.Wrapf(ErrInvalidName, "%q contains whitespace", name)
	}
	return nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Memory keeps variables in a map for the lifetime of the process.
type Memory struct {
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(name string) (string, error) {
	return m.values[name], nil
}

func (m *Memory) Set(name, value string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	m.values[name] = value
	return nil
}

func (m *Memory) Names() ([]string, error) {
	return sortedKeys(m.values), nil
}

func (m *Memory) Close() error { return nil }

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
