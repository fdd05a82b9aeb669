package vars

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUnboundIsEmpty(t *testing.T) {
	m := NewMemory()
	v, err := m.Get("missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("x", "4"))
	require.NoError(t, m.Set("greeting", "hello world"))
	v, err := m.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "4", v)
	names, err := m.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting", "x"}, names)
	v, err = m.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello world", v)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("a.b-c"))
	assert.ErrorIs(t, ValidateName(""), ErrInvalidName)
	assert.ErrorIs(t, ValidateName("a b"), ErrInvalidName)
	assert.Error(t, NewMemory().Set("has\ttab", "v"))
}

func TestFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()

	s, err := OpenFile(fs, "/vars.txt")
	require.NoError(t, err)
	require.NoError(t, s.Set("b", "two words"))
	require.NoError(t, s.Set("a", "line1\nline2"))
	require.NoError(t, s.Set("c", `back\slash`))
	require.NoError(t, s.Close())

	data, err := afero.ReadFile(fs, "/vars.txt")
	require.NoError(t, err)
	assert.Equal(t, "a line1\\nline2\nb two words\nc back\\\\slash\n", string(data))

	s, err = OpenFile(fs, "/vars.txt")
	require.NoError(t, err)
	defer s.Close()
	for name, want := range map[string]string{"a": "line1\nline2", "b": "two words", "c": `back\slash`, "z": ""} {
		got, err := s.Get(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestFileOverwriteShrinks(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := OpenFile(fs, "/vars.txt")
	require.NoError(t, err)
	require.NoError(t, s.Set("x", "a long initial value"))
	require.NoError(t, s.Set("x", "1"))
	require.NoError(t, s.Close())

	data, err := afero.ReadFile(fs, "/vars.txt")
	require.NoError(t, err)
	assert.Equal(t, "x 1\n", string(data))
}

func TestFileReopensLargeValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	big := strings.Repeat("a", 70000) + "\nb"
	s, err := OpenFile(fs, "/vars.txt")
	require.NoError(t, err)
	require.NoError(t, s.Set("big", big))
	require.NoError(t, s.Set("small", "1"))
	require.NoError(t, s.Close())

	s, err = OpenFile(fs, "/vars.txt")
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get("big")
	require.NoError(t, err)
	assert.Equal(t, big, v)
	v, err = s.Get("small")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestFileRejectsMissingName(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.txt", []byte(" value\n"), 0o644))
	_, err := OpenFile(fs, "/bad.txt")
	assert.Error(t, err)
}

func TestLevelDBRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vars.db")

	s, err := OpenLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("x", "4.5"))
	require.NoError(t, s.Set("y", ""))
	require.NoError(t, s.Close())

	s, err = OpenLevelDB(dir)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "4.5", v)
	v, err = s.Get("missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)
	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, names)
}

func TestOpen(t *testing.T) {
	fs := afero.NewMemMapFs()

	s, err := Open(fs, "", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(fs, "file", "/v.txt")
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)
	require.NoError(t, s.Close())

	_, err = Open(fs, "file", "")
	assert.Error(t, err)
	_, err = Open(fs, "redis", "x")
	assert.Error(t, err)
}

func TestParseSpec(t *testing.T) {
	b, p := ParseSpec("leveldb:/tmp/db")
	assert.Equal(t, "leveldb", b)
	assert.Equal(t, "/tmp/db", p)
	b, p = ParseSpec("memory")
	assert.Equal(t, "memory", b)
	assert.Equal(t, "", p)
}
