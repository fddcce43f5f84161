package form

import "time"

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a one-off message raised by a submission. Text is ready for
// display; Detail is the server's own top-level message, when there was one.
// FormErrors lists server messages that could not be attached to a field.
type Notification struct {
	Kind       Kind
	Text       string
	Detail     string
	FormErrors []string
}

// Notifier receives notifications as they are raised. It is called without the
// controller lock held.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) {
	if f != nil {
		f(n)
	}
}

// Outcome labels reported to a Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeStale    = "stale"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
)

// Recorder observes controller activity, typically for metrics.
type Recorder interface {
	LookupCompleted(outcome string, took time.Duration)
	SubmissionCompleted(outcome string, took time.Duration)
	ValidationFailed(field string)
}

type noopRecorder struct{}

func (noopRecorder) LookupCompleted(string, time.Duration)     {}
func (noopRecorder) SubmissionCompleted(string, time.Duration) {}
func (noopRecorder) ValidationFailed(string)                   {}

type noopNotifier struct{}

func (noopNotifier) Notify(Notification) {}
