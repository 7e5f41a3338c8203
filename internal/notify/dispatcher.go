package notify

import (
	"context"

	"github.com/MayderC/zayrel-be/internal/models"
	"go.uber.org/zap"
)

// Dispatcher accepts notification events from the mutating operations.
// Dispatch is fire-and-forget: a failed or dropped event never affects the
// order or stock state that triggered it.
type Dispatcher interface {
	Notify(event models.Event)
}

// Sink delivers events to the external fan-out (mail, chat). Implemented
// outside this module; LogSink is the in-process stand-in.
type Sink interface {
	Send(ctx context.Context, event models.Event) error
}

// AsyncDispatcher queues events on a buffered channel consumed by a single
// goroutine, so Notify never blocks the caller.
type AsyncDispatcher struct {
	sink   Sink
	logger *zap.Logger
	queue  chan models.Event
}

// NewAsyncDispatcher creates dispatcher with the given queue capacity
func NewAsyncDispatcher(sink Sink, logger *zap.Logger, capacity int) *AsyncDispatcher {
	return &AsyncDispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan models.Event, capacity),
	}
}

// Run consumes and delivers queued events until ctx is cancelled
func (d *AsyncDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("notification dispatcher is done")
			return
		case event := <-d.queue:
			if err := d.sink.Send(ctx, event); err != nil {
				d.logger.Error("notification delivery failed",
					zap.String("event", event.Name),
					zap.String("order", event.Order.ID.String()),
					zap.Error(err))
			}
		}
	}
}

// Notify enqueues the event. A full queue drops the event with a log entry
// rather than blocking the mutating operation.
func (d *AsyncDispatcher) Notify(event models.Event) {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("notification queue full, event dropped",
			zap.String("event", event.Name),
			zap.String("order", event.Order.ID.String()))
	}
}

// LogSink logs events instead of delivering them anywhere.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates new LogSink instance
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send logs the event
func (s *LogSink) Send(_ context.Context, event models.Event) error {
	s.logger.Info("notification",
		zap.String("event", event.Name),
		zap.String("order", event.Order.ID.String()),
		zap.String("status", event.Order.Status),
		zap.String("contact", event.Order.Contact()),
		zap.Int64("subtotal", event.Order.Subtotal()),
		zap.Any("extra", event.Extra))
	return nil
}
