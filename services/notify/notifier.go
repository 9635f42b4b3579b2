package notifysvc

import (
	"sync"

	"github.com/trezcool/placement/core"
)

// Note is one notification.
type Note struct {
	Kind    core.NotifyKind `json:"kind"`
	Message string          `json:"message"`
}

type logNotifier struct {
	logger core.Logger
}

// NewLogNotifier writes notifications to the application log.
func NewLogNotifier(logger core.Logger) core.Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(kind core.NotifyKind, message string) {
	switch kind {
	case core.NotifyError:
		n.logger.Warn("notify: "+message, map[string]interface{}{"kind": kind})
	default:
		n.logger.Info("notify: "+message, map[string]interface{}{"kind": kind})
	}
}

type multi []core.Notifier

// Multi fans every notification out to all notifiers.
func Multi(notifiers ...core.Notifier) core.Notifier {
	return multi(notifiers)
}

func (m multi) Notify(kind core.NotifyKind, message string) {
	for _, n := range m {
		n.Notify(kind, message)
	}
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu    sync.Mutex
	notes []Note
}

var _ core.Notifier = (*Recorder)(nil)

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Notify(kind core.NotifyKind, message string) {
	r.mu.Lock()
	r.notes = append(r.notes, Note{Kind: kind, Message: message})
	r.mu.Unlock()
}

// Notes returns a copy of the recorded notifications.
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Last returns the latest notification.
func (r *Recorder) Last() (Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Note{}, false
	}
	return r.notes[len(r.notes)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notes = nil
	r.mu.Unlock()
}
