package badgerkv

import (
	"context"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
)

// DB keeps values in an embedded badger database on local disk.
type DB struct {
	db *badger.DB
}

var _ core.ClosableKVStore = (*DB)(nil)

// Open opens (creating it if needed) the badger database in dataDir.
func Open(dataDir string) (*DB, error) {
	opts := badger.DefaultOptions(dataDir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening badger kv dir")
	}
	return &DB{db: db}, nil
}

func (s *DB) Get(_ context.Context, key string) (string, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return "", false, nil
	} else if err != nil {
		return "", false, errors.Wrapf(err, "reading key %q", key)
	}
	return string(value), true, nil
}

func (s *DB) Set(_ context.Context, key, value string) error {
	err := s.update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	return errors.Wrapf(err, "writing key %q", key)
}

func (s *DB) Remove(_ context.Context, key string) error {
	err := s.update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return errors.Wrapf(err, "deleting key %q", key)
}

// update retries fn until it commits without conflicting with another writer.
func (s *DB) update(fn func(txn *badger.Txn) error) error {
	for {
		err := s.db.Update(fn)
		if err != badger.ErrConflict {
			return err
		}
	}
}

func (s *DB) Close() error {
	return errors.Wrap(s.db.Close(), "closing badger database")
}
