// Package store keeps typed entity collections in a core.KVStore, one key per
// (kind, owner) pair. Collections are written whole on every change.
//
// Ids are handed out by a monotonic counter persisted next to the items and
// every read-modify-write holds a per-key lock, so concurrent creators never
// share an id. Stored values that fail to decode are treated as absent.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
)

// Global is the owner of collections shared by every user.
const Global = ""

// ErrNoChange may be returned by a Mutate callback to leave the stored value untouched.
var ErrNoChange = errors.New("no change")

// Key returns the KV key of the (kind, owner) collection.
func Key(kind, owner string) string {
	if owner == Global {
		return kind
	}
	return kind + ":" + owner
}

// Entity is a value identified by an int id unique within its collection.
type Entity[T any] interface {
	GetID() int
	// WithID returns a copy of the entity carrying id.
	WithID(id int) T
}

// NextID returns 1 for an empty list, else the highest id plus one.
func NextID[T Entity[T]](items []T) int {
	highest := 0
	for _, it := range items {
		if id := it.GetID(); id > highest {
			highest = id
		}
	}
	return highest + 1
}

// Find returns the entity with id.
func Find[T Entity[T]](items []T, id int) (T, bool) {
	for _, it := range items {
		if it.GetID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// IDs returns the set of ids in items.
func IDs[T Entity[T]](items []T) map[int]struct{} {
	ids := make(map[int]struct{}, len(items))
	for _, it := range items {
		ids[it.GetID()] = struct{}{}
	}
	return ids
}

// Update returns a copy of items with the entity matching id replaced by
// patch(entity). The id is kept whatever patch returns. Unknown ids leave the
// list as is.
func Update[T Entity[T]](items []T, id int, patch func(T) T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		if it.GetID() == id {
			it = patch(it).WithID(id)
		}
		out[i] = it
	}
	return out
}

// Remove returns a copy of items without the entity matching id.
func Remove[T Entity[T]](items []T, id int) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it.GetID() != id {
			out = append(out, it)
		}
	}
	return out
}

// Allocator hands out collection ids during a Mutate.
type Allocator struct {
	next int
}

// Next returns a fresh id.
func (a *Allocator) Next() int {
	id := a.next
	a.next++
	return id
}

type document[T any] struct {
	NextID int `json:"next_id"`
	Items  []T `json:"items"`
}

// Collection is a typed list of entities of one kind, partitioned by owner.
type Collection[T Entity[T]] struct {
	kv     core.KVStore
	kind   string
	logger core.Logger
}

func NewCollection[T Entity[T]](kv core.KVStore, kind string, logger core.Logger) *Collection[T] {
	return &Collection[T]{kv: kv, kind: kind, logger: logger}
}

func (c *Collection[T]) Kind() string { return c.kind }

func (c *Collection[T]) Key(owner string) string { return Key(c.kind, owner) }

func emptyDocument[T any]() document[T] {
	return document[T]{NextID: 1, Items: make([]T, 0)}
}

func (c *Collection[T]) load(ctx context.Context, key string) (document[T], error) {
	doc := emptyDocument[T]()
	raw, found, err := c.kv.Get(ctx, key)
	if err != nil {
		return doc, errors.Wrapf(err, "reading %q", key)
	}
	if !found {
		return doc, nil
	}

	if strings.HasPrefix(strings.TrimSpace(raw), "[") { // plain list, no counter
		var items []T
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			c.logger.Warn("malformed stored collection treated as empty", map[string]interface{}{"key": key}, err)
			return doc, nil
		}
		doc.Items = items
	} else if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		c.logger.Warn("malformed stored collection treated as empty", map[string]interface{}{"key": key}, err)
		return emptyDocument[T](), nil
	}

	if doc.Items == nil {
		doc.Items = make([]T, 0)
	}
	if n := NextID(doc.Items); doc.NextID < n {
		doc.NextID = n
	}
	return doc, nil
}

func (c *Collection[T]) save(ctx context.Context, key string, doc document[T]) error {
	if doc.Items == nil {
		doc.Items = make([]T, 0)
	}
	if n := NextID(doc.Items); doc.NextID < n {
		doc.NextID = n
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	return errors.Wrapf(c.kv.Set(ctx, key, string(data)), "writing %q", key)
}

// Load returns the owner's entities, or an empty list if there are none.
func (c *Collection[T]) Load(ctx context.Context, owner string) ([]T, error) {
	doc, err := c.load(ctx, c.Key(owner))
	return doc.Items, err
}

// Exists reports whether the owner's collection was ever written.
func (c *Collection[T]) Exists(ctx context.Context, owner string) (bool, error) {
	_, found, err := c.kv.Get(ctx, c.Key(owner))
	return found, errors.Wrapf(err, "reading %q", c.Key(owner))
}

// Save replaces the owner's whole collection with items.
func (c *Collection[T]) Save(ctx context.Context, owner string, items []T) error {
	_, err := c.Mutate(ctx, owner, func([]T, *Allocator) ([]T, error) { return items, nil })
	return err
}

// Mutate runs fn on the owner's current entities under the key's lock and
// saves what it returns. Ids for new entities must come from alloc.
// If fn returns ErrNoChange nothing is written and the current list is returned.
func (c *Collection[T]) Mutate(ctx context.Context, owner string, fn func(items []T, alloc *Allocator) ([]T, error)) ([]T, error) {
	key := c.Key(owner)
	unlock := lock(key)
	defer unlock()

	doc, err := c.load(ctx, key)
	if err != nil {
		return nil, err
	}
	alloc := &Allocator{next: doc.NextID}
	items, err := fn(doc.Items, alloc)
	if err == ErrNoChange {
		return doc.Items, nil
	} else if err != nil {
		return nil, err
	}

	next := alloc.next
	if doc.NextID > next {
		next = doc.NextID
	}
	if err := c.save(ctx, key, document[T]{NextID: next, Items: items}); err != nil {
		return nil, err
	}
	return items, nil
}

// Create appends item under a freshly allocated id and returns it.
func (c *Collection[T]) Create(ctx context.Context, owner string, item T) (T, error) {
	var created T
	_, err := c.Mutate(ctx, owner, func(items []T, alloc *Allocator) ([]T, error) {
		created = item.WithID(alloc.Next())
		return append(items, created), nil
	})
	return created, err
}

// Update patches the entity with id. found is false, and nothing is written,
// when there is no such entity.
func (c *Collection[T]) Update(ctx context.Context, owner string, id int, patch func(T) T) (items []T, found bool, err error) {
	items, err = c.Mutate(ctx, owner, func(items []T, _ *Allocator) ([]T, error) {
		if _, found = Find(items, id); !found {
			return nil, ErrNoChange
		}
		return Update(items, id, patch), nil
	})
	return items, found, err
}

// Delete removes the entity with id. found is false, and nothing is written,
// when there is no such entity.
func (c *Collection[T]) Delete(ctx context.Context, owner string, id int) (items []T, found bool, err error) {
	items, err = c.Mutate(ctx, owner, func(items []T, _ *Allocator) ([]T, error) {
		if _, found = Find(items, id); !found {
			return nil, ErrNoChange
		}
		return Remove(items, id), nil
	})
	return items, found, err
}

// Clear drops the owner's collection, counter included.
func (c *Collection[T]) Clear(ctx context.Context, owner string) error {
	key := c.Key(owner)
	unlock := lock(key)
	defer unlock()
	return errors.Wrapf(c.kv.Remove(ctx, key), "removing %q", key)
}

var locks = struct {
	sync.Mutex
	byKey map[string]*sync.Mutex
}{byKey: make(map[string]*sync.Mutex)}

// lock takes the read-modify-write lock of key and returns its release.
func lock(key string) func() {
	locks.Lock()
	mu, ok := locks.byKey[key]
	if !ok {
		mu = new(sync.Mutex)
		locks.byKey[key] = mu
	}
	locks.Unlock()

	mu.Lock()
	return mu.Unlock
}
