package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kheyma/kheyma-service/internal/events"
)

// ErrQueueFull is returned by Enqueue when the buffer is exhausted.
var ErrQueueFull = errors.New("notification queue full")

// NotificationWorker delivers events on a background goroutine so that slow
// notification channels do not hold up the request that emitted them.
type NotificationWorker struct {
	jobs    chan events.Event
	deliver events.EventHandler
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewNotificationWorker creates a worker with a queue of the given size.
func NewNotificationWorker(deliver events.EventHandler, buffer int, logger *zap.Logger) *NotificationWorker {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		jobs:    make(chan events.Event, buffer),
		deliver: deliver,
		logger:  logger.Named("notifications"),
	}
}

// Subscribe routes the given event types from the dispatcher into the queue.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher, types ...events.EventType) {
	for _, t := range types {
		dispatcher.Subscribe(t, w.Enqueue)
	}
}

// Enqueue queues an event without blocking.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	select {
	case w.jobs <- event:
		return nil
	default:
		w.logger.Warn("dropping notification", zap.String("event_type", string(event.Type)))
		return ErrQueueFull
	}
}

// Start runs the delivery loop until ctx is cancelled. Queued events are
// drained before the loop exits.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event := <-w.jobs:
				w.handle(event)
			case <-ctx.Done():
				w.drain()
				return
			}
		}
	}()
}

// Wait blocks until the loop started by Start has returned.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}

func (w *NotificationWorker) drain() {
	for {
		select {
		case event := <-w.jobs:
			w.handle(event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) handle(event events.Event) {
	if err := w.deliver(context.Background(), event); err != nil {
		w.logger.Error("notification delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

// StartNotificationWorker wires a worker for the given handler to the
// dispatcher and starts it.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, deliver events.EventHandler, types []events.EventType, logger *zap.Logger) *NotificationWorker {
	w := NewNotificationWorker(deliver, 0, logger)
	w.Subscribe(dispatcher, types...)
	w.Start(ctx)
	return w
}
