package vars

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var levelKeyPrefix = []byte("var/")

// LevelDB persists variables in a LevelDB database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if needed) the database directory at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "vars: open leveldb %s", path)
	}
	return &LevelDB{db: db}, nil
}

func levelKey(name string) []byte {
	key := make([]byte, 0, len(levelKeyPrefix)+len(name))
	key = append(key, levelKeyPrefix...)
	return append(key, name...)
}

func (s *LevelDB) Get(name string) (string, error) {
	val, err := s.db.Get(levelKey(name), nil)
	if err == leveldb.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "vars: get %q", name)
	}
	return string(val), nil
}

func (s *LevelDB) Set(name, value string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.db.Put(levelKey(name), []byte(value), nil); err != nil {
		return errors.Wrapf(err, "vars: put %q", name)
	}
	return nil
}

func (s *LevelDB) Names() ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix(levelKeyPrefix), nil)
	defer iter.Release()
	var names []string
	for iter.Next() {
		names = append(names, string(iter.Key()[len(levelKeyPrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "vars: iterate")
	}
	return names, nil
}

func (s *LevelDB) Close() error {
	return s.db.Close()
}
