package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/binhetc/pos-ai/internal/core/domain"
)

func (r *PaymentRepository) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	var total string
	err := r.db.QueryRow(ctx, `SELECT id, store_id, status, total::text FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.StoreID, &o.Status, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %s: bad total %q: %w", o.ID, total, err)
	}
	return &o, nil
}
