package rediskv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/placement/core"
)

// DB keeps values in redis under "<namespace>:<key>".
type DB struct {
	client    *redis.Client
	namespace string
}

var _ core.ClosableKVStore = (*DB)(nil)

// Open connects to the redis server at addr and checks it answers.
func Open(ctx context.Context, addr string, db int, namespace string) (*DB, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "pinging redis at %s", addr)
	}
	return New(client, namespace), nil
}

// New wraps an existing client.
func New(client *redis.Client, namespace string) *DB {
	return &DB{client: client, namespace: namespace}
}

func (s *DB) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

func (s *DB) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, errors.Wrapf(err, "reading key %q", key)
	}
	return value, true, nil
}

func (s *DB) Set(ctx context.Context, key, value string) error {
	return errors.Wrapf(s.client.Set(ctx, s.key(key), value, 0).Err(), "writing key %q", key)
}

func (s *DB) Remove(ctx context.Context, key string) error {
	return errors.Wrapf(s.client.Del(ctx, s.key(key)).Err(), "deleting key %q", key)
}

func (s *DB) Close() error {
	return errors.Wrap(s.client.Close(), "closing redis client")
}
