package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/scheduler"
	"github.com/trezcool/placement/core/user"
	logsvc "github.com/trezcool/placement/services/logger"
	notifysvc "github.com/trezcool/placement/services/notify"
	"github.com/trezcool/placement/storage/directory"
	inmemkv "github.com/trezcool/placement/storage/kv/inmem"
)

// Epoch is the virtual start time used by tests.
var Epoch = time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)

// Env bundles the collaborators most services need.
type Env struct {
	Conf       *core.Config
	KV         *inmemkv.DB
	Logger     core.Logger
	Notifier   *notifysvc.Recorder
	Sched      *scheduler.Queue
	Users      user.Repository
	Validate   *validator.Validate
	Translator ut.Translator
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	return &Env{
		Conf:       core.NewTestConfig(),
		KV:         inmemkv.Open(),
		Logger:     logsvc.NewNopLogger(),
		Notifier:   notifysvc.NewRecorder(),
		Sched:      scheduler.NewVirtual(Epoch),
		Users:      directory.NewDemoRepository(""),
		Validate:   validate,
		Translator: translator,
	}
}

// Student returns the demo student account.
func (e *Env) Student(t *testing.T) user.User {
	t.Helper()
	usr, err := e.Users.FirstWithRole(user.RoleStudent)
	require.NoError(t, err)
	return usr
}

// Admin returns the demo admin account.
func (e *Env) Admin(t *testing.T) user.User {
	t.Helper()
	usr, err := e.Users.FirstWithRole(user.RoleAdmin)
	require.NoError(t, err)
	return usr
}

// AddStudent puts a student account into the directory.
func (e *Env) AddStudent(t *testing.T, id, name, email string) user.User {
	t.Helper()
	usr, err := e.Users.Add(user.User{ID: id, Name: name, Email: email, Role: user.RoleStudent})
	require.NoError(t, err)
	return usr
}

// LastNote asserts the latest notification.
func (e *Env) LastNote(t *testing.T, kind core.NotifyKind, msg string) {
	t.Helper()
	note, ok := e.Notifier.Last()
	if assert.True(t, ok, "no notification sent") {
		assert.Equal(t, notifysvc.Note{Kind: kind, Message: msg}, note)
	}
}

// RunKVStoreTests checks the behaviour every core.KVStore must have.
func RunKVStoreTests(t *testing.T, kv core.KVStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		_, found, err := kv.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "reminders:s1", `{"next_id":2,"items":[]}`))
		v, found, err := kv.Get(ctx, "reminders:s1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, `{"next_id":2,"items":[]}`, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "current-user", "a"))
		require.NoError(t, kv.Set(ctx, "current-user", "b"))
		v, _, err := kv.Get(ctx, "current-user")
		require.NoError(t, err)
		assert.Equal(t, "b", v)
	})

	t.Run("empty value is still present", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "empty", ""))
		v, found, err := kv.Get(ctx, "empty")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "", v)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "gone", "x"))
		require.NoError(t, kv.Remove(ctx, "gone"))
		_, found, err := kv.Get(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("remove absent key", func(t *testing.T) {
		assert.NoError(t, kv.Remove(ctx, "never-set"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "chat:s1", "one"))
		require.NoError(t, kv.Set(ctx, "chat:s2", "two"))
		v1, _, _ := kv.Get(ctx, "chat:s1")
		v2, _, _ := kv.Get(ctx, "chat:s2")
		assert.Equal(t, "one", v1)
		assert.Equal(t, "two", v2)
	})
}
