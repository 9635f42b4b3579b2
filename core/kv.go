package core

import (
	"context"
	"io"
)

type (
	// KVStore is the persistent key-value substrate every collection is kept in.
	// Values are opaque text. There is no atomicity across keys.
	KVStore interface {
		// Get returns the value stored under key; found is false when the key is absent.
		Get(ctx context.Context, key string) (value string, found bool, err error)
		Set(ctx context.Context, key, value string) error
		// Remove deletes key. Removing an absent key is not an error.
		Remove(ctx context.Context, key string) error
	}

	// ClosableKVStore is a KVStore holding resources (files, connections).
	ClosableKVStore interface {
		KVStore
		io.Closer
	}
)

// Ordering is a sort instruction parsed from an `ordering` query param.
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
