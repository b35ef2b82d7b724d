package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/binhetc/pos-ai/internal/core/domain"
)

type OutboxRepository struct {
	db DB
}

func NewOutboxRepository(db DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// ProcessNext locks the oldest due event, hands it to deliver and records the
// result. It reports false when no event was due.
func (r *OutboxRepository) ProcessNext(ctx context.Context, deliver func(context.Context, domain.OutboxEvent) error) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, event_type, reference, payload, attempts
		FROM payment_events
		WHERE status = 'PENDING' AND next_run_at <= NOW()
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	var ev domain.OutboxEvent
	var payload []byte
	err = tx.QueryRow(ctx, query).Scan(&ev.ID, &ev.Type, &ev.Reference, &payload, &ev.Attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim event: %w", err)
	}
	ev.Payload = payload

	if sendErr := deliver(ctx, ev); sendErr != nil {
		attempts := ev.Attempts + 1
		if attempts >= domain.OutboxMaxAttempts {
			_, err = tx.Exec(ctx,
				`UPDATE payment_events SET status = 'FAILED', attempts = $2, last_error = $3 WHERE id = $1`,
				ev.ID, attempts, sendErr.Error())
		} else {
			nextRun := time.Now().Add(domain.OutboxBackoff(attempts))
			_, err = tx.Exec(ctx,
				`UPDATE payment_events SET attempts = $2, last_error = $3, next_run_at = $4 WHERE id = $1`,
				ev.ID, attempts, sendErr.Error(), nextRun)
		}
	} else {
		_, err = tx.Exec(ctx, `UPDATE payment_events SET status = 'COMPLETED', attempts = attempts + 1 WHERE id = $1`, ev.ID)
	}
	if err != nil {
		return true, fmt.Errorf("record delivery: %w", err)
	}
	return true, tx.Commit(ctx)
}
