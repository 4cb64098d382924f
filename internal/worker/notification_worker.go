package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/repeat-complaints/internal/events"
)

// ErrQueueFull is returned when a notification could not be queued.
var ErrQueueFull = errors.New("notification queue full")

// Notifier delivers one event.
type Notifier interface {
	Notify(ctx context.Context, event events.Event) error
}

// NotificationWorker moves notification delivery off the publishing path.
type NotificationWorker struct {
	notifier Notifier
	queue    chan events.Event
	logger   *zap.Logger
}

// NewNotificationWorker builds a worker with a queue of the given size.
func NewNotificationWorker(notifier Notifier, buffer int, logger *zap.Logger) *NotificationWorker {
	if buffer < 1 {
		buffer = 1
	}
	return &NotificationWorker{notifier: notifier, queue: make(chan events.Event, buffer), logger: logger}
}

// Subscribe queues analysis events published on dispatcher.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventAnalysisCompleted, w.enqueue)
	dispatcher.Subscribe(events.EventAnalysisFailed, w.enqueue)
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("dropping notification", zap.String("type", string(event.Type)), zap.String("run_id", event.RunID))
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is done.
func (w *NotificationWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-w.queue:
			if err := w.notifier.Notify(ctx, event); err != nil {
				w.logger.Warn("notification failed",
					zap.String("type", string(event.Type)),
					zap.String("run_id", event.RunID),
					zap.Error(err))
			}
		}
	}
}
