package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/binhetc/pos-ai/internal/core/domain"
	"github.com/binhetc/pos-ai/internal/core/notifications"
)

const DefaultInterval = 5 * time.Second

// Outbox hands out due payment events one at a time.
type Outbox interface {
	ProcessNext(ctx context.Context, deliver func(context.Context, domain.OutboxEvent) error) (bool, error)
}

// EventWorker drains the payment event outbox into a publisher.
type EventWorker struct {
	outbox    Outbox
	publisher notifications.Publisher
	interval  time.Duration
	done      chan struct{}
}

func NewEventWorker(outbox Outbox, publisher notifications.Publisher, interval time.Duration) *EventWorker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &EventWorker{outbox: outbox, publisher: publisher, interval: interval, done: make(chan struct{})}
}

// Start runs the worker until ctx is cancelled. Done is closed once it has
// stopped.
func (w *EventWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		slog.Info("Payment event worker started", "interval", w.interval)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			w.drain(ctx)
			select {
			case <-ctx.Done():
				slog.Info("Payment event worker stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}

func (w *EventWorker) Done() <-chan struct{} {
	return w.done
}

// drain processes due events until none are left.
func (w *EventWorker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		processed, err := w.outbox.ProcessNext(ctx, w.deliver)
		if err != nil {
			slog.Error("Worker: outbox poll failed", "error", err)
			return
		}
		if !processed {
			return
		}
	}
}

func (w *EventWorker) deliver(ctx context.Context, ev domain.OutboxEvent) error {
	if err := w.publisher.Publish(ctx, ev); err != nil {
		attempts := ev.Attempts + 1
		if attempts >= domain.OutboxMaxAttempts {
			slog.Error("Worker: event marked as FAILED (max attempts reached)", "event_id", ev.ID, "reference", ev.Reference, "error", err)
		} else {
			slog.Warn("Worker: publish failed, scheduled retry", "event_id", ev.ID, "attempts", attempts, "retry_in", domain.OutboxBackoff(attempts), "error", err)
		}
		return err
	}
	slog.Info("Worker: event published", "event_id", ev.ID, "type", ev.Type, "reference", ev.Reference)
	return nil
}
