// Package scheduler runs delayed actions from a single ordered queue of
// (fireAt, action) pairs. A queue built with NewVirtual never consults the
// wall clock: time only moves when Advance is called, which makes delayed
// behaviour deterministic under test.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Clock tells the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t. The clock never goes backwards.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	if t.After(c.now) {
		c.now = t
	}
	c.mu.Unlock()
}

// Task is a scheduled action.
type Task struct {
	fireAt time.Time
	seq    uint64
	action func()
	index  int // position in the heap, -1 once popped or cancelled
	q      *Queue
}

func (t *Task) FireAt() time.Time { return t.fireAt }

// Cancel removes the task from its queue.
// It returns false if the task already fired or was cancelled.
func (t *Task) Cancel() bool {
	t.q.mu.Lock()
	defer t.q.mu.Unlock()
	if t.index < 0 {
		return false
	}
	heap.Remove(&t.q.tasks, t.index)
	return true
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].fireAt.Equal(h[j].fireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].fireAt.Before(h[j].fireAt)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x interface{}) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Queue is the delayed-task scheduler.
type Queue struct {
	mu     sync.Mutex
	clock  Clock
	manual *ManualClock
	tasks  taskHeap
	seq    uint64
	wake   chan struct{}
}

// New returns a queue driven by the wall clock. Call Run to fire its tasks.
func New() *Queue {
	return &Queue{clock: systemClock{}, wake: make(chan struct{}, 1)}
}

// NewVirtual returns a queue whose time starts at start and only moves on Advance.
func NewVirtual(start time.Time) *Queue {
	mc := NewManualClock(start)
	return &Queue{clock: mc, manual: mc, wake: make(chan struct{}, 1)}
}

func (q *Queue) Now() time.Time { return q.clock.Now() }

// Schedule queues action to run once delay has elapsed.
// Actions sharing a fire time run in scheduling order.
func (q *Queue) Schedule(delay time.Duration, action func()) *Task {
	if delay < 0 {
		delay = 0
	}
	q.mu.Lock()
	q.seq++
	t := &Task{fireAt: q.clock.Now().Add(delay), seq: q.seq, action: action, q: q}
	heap.Push(&q.tasks, t)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return t
}

// Pending returns the number of queued tasks.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// popDue removes and returns the earliest task due at or before deadline.
func (q *Queue) popDue(deadline time.Time) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 || q.tasks[0].fireAt.After(deadline) {
		return nil
	}
	return heap.Pop(&q.tasks).(*Task)
}

// Advance fires, in order, every task due within d from now and returns how
// many fired. On a virtual queue the clock is moved to each task's fire time
// before it runs and ends at now+d. Tasks scheduled by fired actions also run
// if they fall inside the window.
func (q *Queue) Advance(d time.Duration) int {
	target := q.clock.Now().Add(d)
	var fired int
	for {
		t := q.popDue(target)
		if t == nil {
			break
		}
		if q.manual != nil {
			q.manual.Set(t.fireAt)
		}
		t.action()
		fired++
	}
	if q.manual != nil {
		q.manual.Set(target)
	}
	return fired
}

// RunDue fires every task already due.
func (q *Queue) RunDue() int {
	return q.Advance(0)
}

// Run fires tasks at their wall-clock time, one at a time on the calling
// goroutine, until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		q.RunDue()

		wait := time.Hour
		q.mu.Lock()
		if len(q.tasks) > 0 {
			wait = q.tasks[0].fireAt.Sub(q.clock.Now())
		}
		q.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		case <-timer.C:
		}
	}
}

// Sleep suspends the caller until delay has elapsed on the queue's clock.
func (q *Queue) Sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	done := make(chan struct{})
	t := q.Schedule(delay, func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		t.Cancel()
		return ctx.Err()
	}
}
