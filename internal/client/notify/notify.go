// Package notify is the fire-and-forget side channel for user-facing
// toasts. The session layer emits a notification after every operation
// settles; nothing in the state machine depends on delivery.
package notify

import (
	"context"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/logging"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is one toast-sized event.
type Notification struct {
	Kind    Kind
	Title   string
	Message string
}

// Sink receives notifications. Implementations must not block the caller
// for long and must never fail loudly.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, n Notification)

func (f SinkFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Discard swallows every notification.
var Discard Sink = SinkFunc(func(context.Context, Notification) {})

// LogSink writes notifications to the structured log. Used when the client
// runs headless and has no UI surface to toast on.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log.With("component", "notify")}
}

func (s *LogSink) Notify(ctx context.Context, n Notification) {
	if n.Kind == KindError {
		s.log.Warn(ctx, n.Title, "detail", n.Message)
		return
	}
	s.log.Info(ctx, n.Title, "detail", n.Message)
}
