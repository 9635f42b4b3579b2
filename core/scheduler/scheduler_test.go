package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)

func TestQueue_AdvanceFiresInOrder(t *testing.T) {
	q := NewVirtual(epoch)

	var got []string
	q.Schedule(3*time.Second, func() { got = append(got, "c") })
	q.Schedule(time.Second, func() { got = append(got, "a") })
	q.Schedule(2*time.Second, func() { got = append(got, "b1") })
	q.Schedule(2*time.Second, func() { got = append(got, "b2") })

	assert.Equal(t, 0, q.Advance(999*time.Millisecond))
	assert.Empty(t, got)

	assert.Equal(t, 3, q.Advance(1500*time.Millisecond))
	assert.Equal(t, []string{"a", "b1", "b2"}, got)
	assert.Equal(t, epoch.Add(2499*time.Millisecond), q.Now())
	assert.Equal(t, 1, q.Pending())

	q.Advance(time.Second)
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, got)
	assert.Zero(t, q.Pending())
}

func TestQueue_ClockMovesToFireTime(t *testing.T) {
	q := NewVirtual(epoch)

	var seen time.Time
	q.Schedule(time.Second, func() { seen = q.Now() })
	q.Advance(time.Minute)

	assert.Equal(t, epoch.Add(time.Second), seen)
	assert.Equal(t, epoch.Add(time.Minute), q.Now())
}

func TestQueue_ChainedTasks(t *testing.T) {
	q := NewVirtual(epoch)

	var fired []int
	q.Schedule(time.Second, func() {
		fired = append(fired, 1)
		q.Schedule(time.Second, func() { fired = append(fired, 2) })
		q.Schedule(time.Hour, func() { fired = append(fired, 3) })
	})

	assert.Equal(t, 2, q.Advance(5*time.Second))
	assert.Equal(t, []int{1, 2}, fired)
	assert.Equal(t, 1, q.Pending())
}

func TestTask_Cancel(t *testing.T) {
	q := NewVirtual(epoch)

	var fired bool
	task := q.Schedule(time.Second, func() { fired = true })
	other := q.Schedule(time.Second, func() {})

	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel(), "second cancel")
	assert.Equal(t, 1, q.Pending())

	q.Advance(time.Second)
	assert.False(t, fired)
	assert.False(t, other.Cancel(), "already fired")
}

func TestQueue_SleepVirtual(t *testing.T) {
	q := NewVirtual(epoch)

	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		err = q.Sleep(context.Background(), time.Second)
	}()

	require.Eventually(t, func() bool { return q.Pending() == 1 }, time.Second, time.Millisecond)
	q.Advance(time.Second)
	wg.Wait()
	assert.NoError(t, err)
}

func TestQueue_SleepCancelled(t *testing.T) {
	q := NewVirtual(epoch)
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() { errs <- q.Sleep(ctx, time.Hour) }()

	require.Eventually(t, func() bool { return q.Pending() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)
	assert.Zero(t, q.Pending())
}

func TestQueue_SleepZero(t *testing.T) {
	q := NewVirtual(epoch)
	assert.NoError(t, q.Sleep(context.Background(), 0))
	assert.Zero(t, q.Pending())
}

func TestQueue_RunWallClock(t *testing.T) {
	q := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() { _ = q.Run(ctx) }()
	q.Schedule(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire")
	}
}
