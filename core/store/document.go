package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
)

// Document is a single JSON value of one kind, partitioned by owner.
type Document[T any] struct {
	kv     core.KVStore
	kind   string
	logger core.Logger
}

func NewDocument[T any](kv core.KVStore, kind string, logger core.Logger) *Document[T] {
	return &Document[T]{kv: kv, kind: kind, logger: logger}
}

func (d *Document[T]) Key(owner string) string { return Key(d.kind, owner) }

func (d *Document[T]) load(ctx context.Context, key string) (v T, found bool, err error) {
	raw, found, err := d.kv.Get(ctx, key)
	if err != nil {
		return v, false, errors.Wrapf(err, "reading %q", key)
	}
	if !found {
		return v, false, nil
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		d.logger.Warn("malformed stored document treated as absent", map[string]interface{}{"key": key}, err)
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

func (d *Document[T]) save(ctx context.Context, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	return errors.Wrapf(d.kv.Set(ctx, key, string(data)), "writing %q", key)
}

// Load returns the owner's value. found is false when it is absent or unreadable.
func (d *Document[T]) Load(ctx context.Context, owner string) (v T, found bool, err error) {
	return d.load(ctx, d.Key(owner))
}

func (d *Document[T]) Save(ctx context.Context, owner string, v T) error {
	key := d.Key(owner)
	unlock := lock(key)
	defer unlock()
	return d.save(ctx, key, v)
}

func (d *Document[T]) Remove(ctx context.Context, owner string) error {
	key := d.Key(owner)
	unlock := lock(key)
	defer unlock()
	return errors.Wrapf(d.kv.Remove(ctx, key), "removing %q", key)
}

// Mutate runs fn on the owner's current value under the key's lock and saves
// what it returns. If fn returns ErrNoChange nothing is written and the current
// value is returned.
func (d *Document[T]) Mutate(ctx context.Context, owner string, fn func(v T, found bool) (T, error)) (T, error) {
	key := d.Key(owner)
	unlock := lock(key)
	defer unlock()

	cur, found, err := d.load(ctx, key)
	if err != nil {
		return cur, err
	}
	next, err := fn(cur, found)
	if err == ErrNoChange {
		return cur, nil
	} else if err != nil {
		return cur, err
	}
	if err := d.save(ctx, key, next); err != nil {
		return cur, err
	}
	return next, nil
}
