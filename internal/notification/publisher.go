package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"kesher/internal/platform/metrics"
	"kesher/pkg/requestcontext"
)

// Publisher buffers events for the background worker. Emit never blocks the
// request path: when the buffer is full the event is dropped and counted.
type Publisher struct {
	events  chan Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

const defaultBufferSize = 1024

func NewPublisher(logger *slog.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{
		events:  make(chan Event, defaultBufferSize),
		logger:  logger,
		metrics: m,
	}
}

// Emit queues an event for dispatch. Missing ID and timestamp are filled in
// here so callers stay terse.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.DeviceName(ctx)
	}

	select {
	case p.events <- event:
		if p.metrics != nil {
			p.metrics.NotificationsEmitted.WithLabelValues(string(event.Kind)).Inc()
		}
	default:
		if p.metrics != nil {
			p.metrics.NotificationsDropped.Inc()
		}
		p.logger.WarnContext(ctx, "notification buffer full, event dropped",
			"kind", event.Kind,
			"recipient_id", event.RecipientID,
		)
	}
}

// Events exposes the inbox for the worker.
func (p *Publisher) Events() <-chan Event {
	return p.events
}

// Dispatcher delivers events to the outbound channel (Kafka in production).
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// Worker consumes buffered events and hands them to the dispatcher. Dispatch
// failures are logged and skipped: notifications are best-effort and must
// never wedge the queue.
type Worker struct {
	dispatcher Dispatcher
	inbox      <-chan Event
	logger     *slog.Logger
}

func NewWorker(dispatcher Dispatcher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{dispatcher: dispatcher, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			dispatchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := w.dispatcher.Dispatch(dispatchCtx, event)
			cancel()
			if err != nil {
				w.logger.ErrorContext(ctx, "notification dispatch failed",
					"kind", event.Kind,
					"event_id", event.ID,
					"error", err,
				)
			}
		}
	}
}
