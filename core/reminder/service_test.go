package reminder

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/store"
	emailsvc "github.com/trezcool/placement/services/email"
	testutil "github.com/trezcool/placement/tests"
)

func newService(env *testutil.Env) *Service {
	return NewService(Options{
		KV:         env.KV,
		Clock:      env.Sched,
		Validate:   env.Validate,
		Translator: env.Translator,
		Logger:     env.Logger,
		Notifier:   env.Notifier,
	})
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		private   []Reminder
		broadcast []Reminder
		wantIDs   []int
	}{
		{name: "both empty", wantIDs: []int{}},
		{
			name:      "private wins on collision",
			private:   []Reminder{{ID: 1, Title: "mine"}},
			broadcast: []Reminder{{ID: 1, Title: "theirs"}, {ID: 2, Title: "new"}},
			wantIDs:   []int{1, 2},
		},
		{
			name:      "private order first",
			private:   []Reminder{{ID: 5}, {ID: 3}},
			broadcast: []Reminder{{ID: 4}, {ID: 1}},
			wantIDs:   []int{5, 3, 4, 1},
		},
		{
			name:    "no broadcast",
			private: []Reminder{{ID: 2}},
			wantIDs: []int{2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.private, tt.broadcast)
			ids := make([]int, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	got := Merge([]Reminder{{ID: 1, Title: "mine"}}, []Reminder{{ID: 1, Title: "theirs"}, {ID: 2, Title: "new"}})
	assert.Equal(t, "mine", got[0].Title)
	assert.Equal(t, "new", got[1].Title)
}

func TestService_Scenario(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := newService(env)
	ctx := context.Background()

	view, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view)

	rem, err := svc.Add(ctx, "s1", NewReminder{Title: "Update Resume", Deadline: "2025-04-25"})
	require.NoError(t, err)
	assert.Equal(t, Reminder{ID: 1, Title: "Update Resume", Deadline: "2025-04-25", Origin: OriginUser}, rem)
	env.LastNote(t, core.NotifySuccess, "Reminder added successfully")

	rem, found, err := svc.Toggle(ctx, "s1", 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, rem.IsCompleted)
	env.LastNote(t, core.NotifySuccess, `Completed "Update Resume"!`)

	view, err = svc.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.True(t, view[0].IsCompleted)

	rem, _, err = svc.Toggle(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, rem.IsCompleted)
	env.LastNote(t, core.NotifySuccess, `Marked "Update Resume" as incomplete`)

	found, err = svc.Delete(ctx, "s1", 1)
	require.NoError(t, err)
	assert.True(t, found)
	env.LastNote(t, core.NotifySuccess, "Reminder deleted")

	view, err = svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view)
}

func TestService_Add(t *testing.T) {
	tests := []struct {
		name         string
		in           NewReminder
		wantDeadline string
		wantErr      string
	}{
		{name: "with deadline", in: NewReminder{Title: " Apply to TechCorp ", Deadline: "2025-04-28"}, wantDeadline: "2025-04-28"},
		{name: "deadline defaults to today", in: NewReminder{Title: "Practice Interview"}, wantDeadline: "2025-04-20"},
		{name: "blank title", in: NewReminder{Title: "   "}, wantErr: "Please enter a title for the reminder"},
		{name: "bad deadline", in: NewReminder{Title: "x", Deadline: "next week"}, wantErr: "invalid reminder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			svc := newService(env)
			ctx := context.Background()

			rem, err := svc.Add(ctx, "s1", tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, core.IsValidation(err))
				assert.Equal(t, tt.wantErr, err.Error())
				note, _ := env.Notifier.Last()
				assert.Equal(t, core.NotifyError, note.Kind)

				exists, _ := svc.items.Exists(ctx, "s1")
				assert.False(t, exists, "nothing written")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, core.CleanString(tt.in.Title), rem.Title)
			assert.Equal(t, tt.wantDeadline, rem.Deadline)
		})
	}
}

func TestService_UnknownIDIsNoop(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := newService(env)
	ctx := context.Background()

	_, err := svc.Add(ctx, "s1", NewReminder{Title: "a"})
	require.NoError(t, err)
	env.Notifier.Reset()

	_, found, err := svc.Toggle(ctx, "s1", 42)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = svc.Delete(ctx, "s1", 42)
	require.NoError(t, err)
	assert.False(t, found)

	assert.Empty(t, env.Notifier.Notes())
	view, _ := svc.View(ctx, "s1")
	assert.Len(t, view, 1)
}

func TestService_BroadcastPromotion(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := newService(env)
	ctx := context.Background()

	_, err := svc.AddBroadcast(ctx, NewReminder{Title: "Career fair", Deadline: "2025-04-22"})
	require.NoError(t, err)
	_, err = svc.AddBroadcast(ctx, NewReminder{Title: "Submit transcripts", Deadline: "2025-04-30"})
	require.NoError(t, err)
	env.Notifier.Reset()

	view, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, view, 2)
	assert.Equal(t, OriginBroadcast, view[0].Origin)
	env.LastNote(t, core.NotifyInfo, "2 reminders from Admin")

	t.Run("idempotent", func(t *testing.T) {
		env.Notifier.Reset()
		again, err := svc.View(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, view, again)
		assert.Empty(t, env.Notifier.Notes(), "nothing new to announce")
	})

	t.Run("local changes stay local", func(t *testing.T) {
		_, _, err := svc.Toggle(ctx, "s1", 1)
		require.NoError(t, err)
		_, err = svc.Delete(ctx, "s1", 2)
		require.NoError(t, err)

		mine, err := svc.View(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.True(t, mine[0].IsCompleted)

		shared, err := svc.Broadcasts(ctx)
		require.NoError(t, err)
		require.Len(t, shared, 2)
		assert.False(t, shared[0].IsCompleted)

		other, err := svc.View(ctx, "s2")
		require.NoError(t, err)
		assert.Len(t, other, 2)
	})

	t.Run("edits after promotion do not propagate", func(t *testing.T) {
		_, found, err := svc.UpdateBroadcast(ctx, 1, NewReminder{Title: "Career fair (moved)", Deadline: "2025-04-23"})
		require.NoError(t, err)
		require.True(t, found)

		mine, err := svc.View(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "Career fair", mine[0].Title)
	})

	t.Run("new student ids skip promoted ones", func(t *testing.T) {
		rem, err := svc.Add(ctx, "s1", NewReminder{Title: "mine"})
		require.NoError(t, err)
		assert.Equal(t, 3, rem.ID)
	})
}

func TestService_MergeCorrectness(t *testing.T) {
	broadcast := []Reminder{
		{ID: 1, Title: "broadcast version", Deadline: "2025-04-25", Origin: OriginBroadcast},
		{ID: 2, Title: "from broadcast", Deadline: "2025-04-26", Origin: OriginBroadcast},
	}
	tests := []struct {
		name       string
		private    []Reminder
		wantTitles []string
		wantNote   string
	}{
		{
			name:       "held copy shadows its broadcast item",
			private:    []Reminder{{ID: 1, Title: "private version", Deadline: "2025-04-25", Origin: OriginBroadcast, BroadcastID: 1}},
			wantTitles: []string{"private version", "from broadcast"},
			wantNote:   "1 reminders from Admin",
		},
		{
			name:       "copy stored without broadcast id",
			private:    []Reminder{{ID: 1, Title: "private version", Deadline: "2025-04-25", Origin: OriginBroadcast}},
			wantTitles: []string{"private version", "from broadcast"},
			wantNote:   "1 reminders from Admin",
		},
		{
			name:       "own reminder with the same id",
			private:    []Reminder{{ID: 1, Title: "Update Resume", Deadline: "2025-04-25", Origin: OriginUser}},
			wantTitles: []string{"Update Resume", "broadcast version", "from broadcast"},
			wantNote:   "2 reminders from Admin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			svc := newService(env)
			ctx := context.Background()

			require.NoError(t, svc.items.Save(ctx, "s1", tt.private))
			require.NoError(t, svc.items.Save(ctx, BroadcastOwner, broadcast))

			view, err := svc.View(ctx, "s1")
			require.NoError(t, err)
			titles := make([]string, 0, len(view))
			for _, r := range view {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)
			assert.Len(t, store.IDs(view), len(view), "ids stay unique")
			env.LastNote(t, core.NotifyInfo, tt.wantNote)

			stored, err := svc.items.Load(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, view, stored, "view is persisted")
		})
	}
}

func TestService_OwnReminderBeforeBroadcast(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := newService(env)
	ctx := context.Background()

	mine, err := svc.Add(ctx, "s1", NewReminder{Title: "Update Resume", Deadline: "2025-04-25"})
	require.NoError(t, err)
	shared, err := svc.AddBroadcast(ctx, NewReminder{Title: "Career fair", Deadline: "2025-04-22"})
	require.NoError(t, err)
	require.Equal(t, mine.ID, shared.ID)

	view, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, view, 2)
	assert.Equal(t, "Update Resume", view[0].Title)
	assert.Equal(t, "Career fair", view[1].Title)
	assert.Equal(t, 2, view[1].ID)
	assert.Equal(t, shared.ID, view[1].BroadcastID)
	env.LastNote(t, core.NotifyInfo, "1 reminders from Admin")

	found, err := svc.Delete(ctx, "s1", mine.ID)
	require.NoError(t, err)
	require.True(t, found)

	view, err = svc.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, view, 1)
	assert.Equal(t, "Career fair", view[0].Title)
}

func TestService_BroadcastCRUD(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := newService(env)
	ctx := context.Background()

	rem, err := svc.AddBroadcast(ctx, NewReminder{Title: "Career fair"})
	require.NoError(t, err)
	assert.Equal(t, "2025-04-20", rem.Deadline)

	rem, found, err := svc.ToggleBroadcast(ctx, rem.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, rem.IsCompleted)

	_, found, err = svc.UpdateBroadcast(ctx, 99, NewReminder{Title: "x"})
	require.NoError(t, err)
	assert.False(t, found)

	found, err = svc.DeleteBroadcast(ctx, rem.ID)
	require.NoError(t, err)
	assert.True(t, found)

	items, err := svc.Broadcasts(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

type staticRecipients []Recipient

func (r staticRecipients) DigestRecipients(context.Context) ([]Recipient, error) { return r, nil }

func TestDueSoon(t *testing.T) {
	items := []Reminder{
		{ID: 1, Title: "yesterday", Deadline: "2025-04-19"},
		{ID: 2, Title: "in two days", Deadline: "2025-04-22"},
		{ID: 3, Title: "today", Deadline: "2025-04-20"},
		{ID: 4, Title: "done", Deadline: "2025-04-21", IsCompleted: true},
		{ID: 5, Title: "far", Deadline: "2025-05-20"},
		{ID: 6, Title: "garbage", Deadline: "soon"},
	}
	due := DueSoon(items, testutil.Epoch, 72*time.Hour)

	titles := make([]string, 0, len(due))
	for _, r := range due {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"today", "in two days"}, titles)
}

func TestDigest_Run(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := newService(env)
	ctx := context.Background()
	email := emailsvc.NewConsoleServiceMock(env.Conf, env.Logger)

	_, err := svc.Add(ctx, "s1", NewReminder{Title: "Update Resume", Deadline: "2025-04-21"})
	require.NoError(t, err)
	_, err = svc.AddBroadcast(ctx, NewReminder{Title: "Career fair", Deadline: "2025-04-22"})
	require.NoError(t, err)

	recipients := staticRecipients{
		{ID: "s1", Name: "John Student", Address: mail.Address{Name: "John Student", Address: "student@example.com"}},
		{ID: "s2", Name: "Sarah Johnson", Address: mail.Address{Address: "sarah@example.com"}},
	}
	digest := NewDigest(svc, recipients, email, env.Conf.Reminder.DigestWindow)

	n, err := digest.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the broadcast reaches students who never opened their reminders")

	sent := email.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "student@example.com", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Update Resume (due 2025-04-21)")
	assert.Contains(t, sent[0].TextContent, "Career fair (due 2025-04-22)")

	exists, err := svc.items.Exists(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, exists, "the digest does not promote")

	t.Run("promoted copy is listed once", func(t *testing.T) {
		_, err := svc.View(ctx, "s1")
		require.NoError(t, err)

		_, err = digest.Run(ctx)
		require.NoError(t, err)
		sent := email.SentMessages()
		require.Len(t, sent, 4)
		assert.Equal(t, 1, strings.Count(sent[2].TextContent, "Career fair"))
		assert.Contains(t, sent[2].TextContent, "Update Resume (due 2025-04-21)")
	})
}
