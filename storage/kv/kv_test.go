package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/placement/core"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		storage core.StorageConfig
		wantErr bool
	}{
		{name: "memory", storage: core.StorageConfig{Backend: core.BackendMemory}},
		{name: "badger", storage: core.StorageConfig{Backend: core.BackendBadger, DataDir: t.TempDir()}},
		{name: "sqlite", storage: core.StorageConfig{Backend: core.BackendSQLite, DataDir: t.TempDir(), Namespace: "test"}},
		{name: "postgres without url", storage: core.StorageConfig{Backend: core.BackendPostgres}, wantErr: true},
		{name: "unknown", storage: core.StorageConfig{Backend: "floppy"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := core.NewTestConfig()
			conf.Storage = tt.storage

			store, err := Open(ctx, conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.Set(ctx, "k", "v"))
			v, found, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "v", v)
		})
	}
}
