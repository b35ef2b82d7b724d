// Package notifications delivers finalized payment events to downstream
// systems.
package notifications

import (
	"context"
	"log/slog"

	"github.com/binhetc/pos-ai/internal/core/domain"
)

type Publisher interface {
	Publish(ctx context.Context, ev domain.OutboxEvent) error
}

// LogPublisher only logs events. It is used when no sink is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev domain.OutboxEvent) error {
	slog.Info("Payment event (no sink configured)", "event_id", ev.ID, "type", ev.Type, "reference", ev.Reference)
	return nil
}
