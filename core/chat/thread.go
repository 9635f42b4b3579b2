// Package chat keeps conversation transcripts between students and the
// placement office.
//
// A student talks to the office through a Thread. Every message the student
// sends is answered by a scripted acknowledgement after a delay; the answer is
// queued on a scheduler and dropped if the thread is closed first. Admins work
// from an Inbox holding one conversation per student.
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/scheduler"
	"github.com/trezcool/placement/core/store"
	"github.com/trezcool/placement/core/user"
)

const Kind = "chat"

// Scheduler runs delayed actions.
type Scheduler interface {
	Now() time.Time
	Schedule(delay time.Duration, action func()) *scheduler.Task
}

type Options struct {
	KV        core.KVStore
	Scheduler Scheduler
	Conf      core.ChatConfig
	Logger    core.Logger
	Notifier  core.Notifier
}

type Service struct {
	messages *store.Collection[Message]
	inbox    *store.Document[map[string]Conversation]
	sched    Scheduler
	conf     core.ChatConfig
	logger   core.Logger
	notifier core.Notifier
}

func NewService(opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = core.NopNotifier
	}
	return &Service{
		messages: store.NewCollection[Message](opts.KV, Kind, opts.Logger),
		inbox:    store.NewDocument[map[string]Conversation](opts.KV, Kind, opts.Logger),
		sched:    opts.Scheduler,
		conf:     opts.Conf,
		logger:   opts.Logger,
		notifier: opts.Notifier,
	}
}

// Thread is a student's open conversation with the placement office.
type Thread struct {
	svc     *Service
	student user.User

	mu      sync.Mutex
	closed  bool
	pending map[*scheduler.Task]struct{}
}

// Open starts a conversation view for student. Close it when done.
func (svc *Service) Open(student user.User) *Thread {
	return &Thread{svc: svc, student: student, pending: make(map[*scheduler.Task]struct{})}
}

// SetStudent refreshes the profile used for later messages. The id must not
// change.
func (t *Thread) SetStudent(student user.User) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if student.ID == t.student.ID {
		t.student = student
	}
}

// Messages returns the transcript in append order.
func (t *Thread) Messages(ctx context.Context) ([]Message, error) {
	return t.svc.messages.Load(ctx, t.student.ID)
}

// Send appends text as the student's message and queues the scripted reply.
// Whitespace-only text is ignored and sent is false.
func (t *Thread) Send(ctx context.Context, text string) (msg Message, sent bool, err error) {
	if core.CleanString(text) == "" {
		return Message{}, false, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return Message{}, false, nil
	}

	name := t.student.Name
	if name == "" {
		name = "Student"
	}
	msg, err = t.svc.messages.Create(ctx, t.student.ID, Message{
		Sender:      SenderSelf,
		DisplayName: name,
		Text:        text,
		Timestamp:   t.svc.sched.Now(),
	})
	if err != nil {
		return Message{}, false, err
	}

	var task *scheduler.Task
	task = t.svc.sched.Schedule(t.svc.conf.ReplyDelay, func() { t.reply(&task) })
	t.pending[task] = struct{}{}
	return msg, true, nil
}

// reply reads *task under the lock Send held while assigning it.
func (t *Thread) reply(task **scheduler.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, *task)
	if t.closed {
		return
	}

	_, err := t.svc.messages.Create(context.Background(), t.student.ID, Message{
		Sender:      SenderOther,
		DisplayName: t.svc.conf.CounterpartName,
		Text:        t.svc.conf.ReplyText,
		Timestamp:   t.svc.sched.Now(),
	})
	if err != nil {
		t.svc.logger.Error("appending scripted reply", err, t.student)
		return
	}
	t.svc.notifier.Notify(core.NotifySuccess, "New message from Admin")
}

// Pending returns the number of replies still queued.
func (t *Thread) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Close cancels the queued replies. Later sends are ignored.
func (t *Thread) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for task := range t.pending {
		task.Cancel()
		delete(t.pending, task)
	}
}
