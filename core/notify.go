package core

type NotifyKind string

const (
	NotifySuccess NotifyKind = "success"
	NotifyError   NotifyKind = "error"
	NotifyInfo    NotifyKind = "info"
)

// Notifier surfaces a short message to the person using the app.
// Implementations must not block the caller.
type Notifier interface {
	Notify(kind NotifyKind, message string)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(kind NotifyKind, message string)

func (f NotifierFunc) Notify(kind NotifyKind, message string) { f(kind, message) }

// NopNotifier drops every notification.
var NopNotifier Notifier = NotifierFunc(func(NotifyKind, string) {})
