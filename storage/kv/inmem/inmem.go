package inmemkv

import (
	"context"
	"sort"
	"sync"

	"github.com/trezcool/placement/core"
)

// DB is a process-local KV store. Values are lost on exit.
type DB struct {
	sync.RWMutex
	table map[string]string
}

var _ core.ClosableKVStore = (*DB)(nil)

func Open() *DB {
	return &DB{table: make(map[string]string)}
}

func (db *DB) Get(_ context.Context, key string) (string, bool, error) {
	db.RLock()
	defer db.RUnlock()
	v, ok := db.table[key]
	return v, ok, nil
}

func (db *DB) Set(_ context.Context, key, value string) error {
	db.Lock()
	defer db.Unlock()
	db.table[key] = value
	return nil
}

func (db *DB) Remove(_ context.Context, key string) error {
	db.Lock()
	defer db.Unlock()
	delete(db.table, key)
	return nil
}

// Keys lists the stored keys in order.
func (db *DB) Keys() []string {
	db.RLock()
	defer db.RUnlock()
	keys := make([]string, 0, len(db.table))
	for k := range db.table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (db *DB) Close() error { return nil }
