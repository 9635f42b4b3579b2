// Package kv opens the key-value backend selected by configuration.
package kv

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/storage/kv/badgerkv"
	inmemkv "github.com/trezcool/placement/storage/kv/inmem"
	"github.com/trezcool/placement/storage/kv/rediskv"
	"github.com/trezcool/placement/storage/kv/sqlkv"
)

func Open(ctx context.Context, conf *core.Config) (core.ClosableKVStore, error) {
	sc := conf.Storage
	switch sc.Backend {
	case core.BackendMemory:
		return inmemkv.Open(), nil
	case core.BackendBadger:
		if err := os.MkdirAll(sc.DataDir, 0o700); err != nil {
			return nil, errors.Wrap(err, "creating data dir")
		}
		return badgerkv.Open(sc.DataDir)
	case core.BackendRedis:
		return rediskv.Open(ctx, sc.RedisAddr, sc.RedisDB, sc.Namespace)
	case core.BackendPostgres:
		if sc.DatabaseURL == "" {
			return nil, errors.New("postgres backend requires a database url")
		}
		return sqlkv.Open(sqlkv.DriverPostgres, sc.DatabaseURL)
	case core.BackendSQLite:
		if err := os.MkdirAll(sc.DataDir, 0o700); err != nil {
			return nil, errors.Wrap(err, "creating data dir")
		}
		dsn := sc.DatabaseURL
		if dsn == "" {
			dsn = filepath.Join(sc.DataDir, sc.Namespace+".db")
		}
		return sqlkv.Open(sqlkv.DriverSQLite, dsn)
	default:
		return nil, errors.Errorf("unknown storage backend %q", sc.Backend)
	}
}
