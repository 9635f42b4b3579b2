package inmemkv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	inmemkv "github.com/trezcool/placement/storage/kv/inmem"
	"github.com/trezcool/placement/tests"
)

func TestDB(t *testing.T) {
	db := inmemkv.Open()
	testutil.RunKVStoreTests(t, db)
	assert.Contains(t, db.Keys(), "chat:s1")
}
