package vars

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// File persists variables to a line-oriented file, one "name value" pair per line.
// Values are escaped so that newlines survive a round trip. The whole file is read
// on open and rewritten on every Set.
type File struct {
	f      afero.File
	values map[string]string
}

// OpenFile opens (creating if needed) the variable file at path on fs.
func OpenFile(fs afero.Fs, path string) (*File, error) {
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "vars: open %s", path)
	}
	values, err := readLines(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "vars: read %s", path)
	}
	return &File{f: f, values: values}, nil
}

func (s *File) Get(name string) (string, error) {
	return s.values[name], nil
}

func (s *File) Set(name, value string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.values[name] = value
	return s.save()
}

func (s *File) Names() ([]string, error) {
	return sortedKeys(s.values), nil
}

func (s *File) Close() error {
	return s.f.Close()
}

func (s *File) save() error {
	var buf bytes.Buffer
	for _, name := range sortedKeys(s.values) {
		buf.WriteString(name)
		buf.WriteByte(' ')
		buf.WriteString(escapeValue(s.values[name]))
		buf.WriteByte('\n')
	}
	if err := s.f.Truncate(0); err != nil {
		return errors.Wrap(err, "vars: truncate")
	}
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "vars: seek")
	}
	if _, err := s.f.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "vars: write")
	}
	return nil
}

// readLines parses the whole file. Lines are read with no length limit since Set
// accepts values of any size.
func readLines(r io.ReadSeeker) (map[string]string, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	values := make(map[string]string)
	reader := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"); line != "" {
			name, value, _ := strings.Cut(line, " ")
			if name == "" {
				return nil, errors.Errorf("line %d: missing variable name", lineNo)
			}
			values[name] = unescapeValue(value)
		}
		if err == io.EOF {
			return values, nil
		}
	}
}

var (
	valueEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)
	valueUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r")
)

func escapeValue(v string) string   { return valueEscaper.Replace(v) }
func unescapeValue(v string) string { return valueUnescaper.Replace(v) }
