package rediskv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/placement/tests"
)

func TestDB(t *testing.T) {
	mr := miniredis.RunT(t)

	db, err := Open(context.Background(), mr.Addr(), 0, "test")
	require.NoError(t, err)
	defer db.Close()

	testutil.RunKVStoreTests(t, db)

	v, err := mr.Get("test:chat:s1")
	require.NoError(t, err)
	assert.Equal(t, "one", v, "keys are namespaced")
}

func TestOpen_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), addr, 0, "test")
	assert.Error(t, err)
}
