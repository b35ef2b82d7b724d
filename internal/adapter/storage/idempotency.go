package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type IdempotencyRepository struct {
	db DB
}

func NewIdempotencyRepository(db DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Lookup returns the stored response for the key, if any.
func (r *IdempotencyRepository) Lookup(ctx context.Context, storeID uuid.UUID, key string) (int, []byte, bool, error) {
	var status int
	var body []byte
	err := r.db.QueryRow(ctx,
		"SELECT response_status, response_body FROM idempotency_keys WHERE store_id = $1 AND key_id = $2",
		storeID, key).Scan(&status, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	return status, body, true, nil
}

// Save stores the first response seen for the key. Later saves are ignored.
func (r *IdempotencyRepository) Save(ctx context.Context, storeID uuid.UUID, key string, status int, body []byte) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO idempotency_keys (store_id, key_id, response_status, response_body) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING",
		storeID, key, status, body)
	return err
}
