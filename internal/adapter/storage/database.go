package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the part of *pgxpool.Pool the repositories use.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConnectDB initializes the connection pool
func ConnectDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	slog.Info("Connected to Postgres")
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id         UUID PRIMARY KEY,
		store_id   UUID NOT NULL,
		status     TEXT NOT NULL DEFAULT 'pending',
		total      NUMERIC(15,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id               UUID PRIMARY KEY,
		reference        TEXT NOT NULL UNIQUE,
		amount           NUMERIC(15,2) NOT NULL CHECK (amount > 0),
		gateway          TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'pending',
		transaction_id   TEXT,
		gateway_response JSONB,
		note             TEXT,
		order_id         UUID NOT NULL REFERENCES orders(id),
		store_id         UUID NOT NULL,
		processed_by     UUID,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS payments_store_created_idx ON payments (store_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS payments_order_idx ON payments (order_id)`,
	`CREATE TABLE IF NOT EXISTS payment_events (
		id          UUID PRIMARY KEY,
		payment_id  UUID NOT NULL REFERENCES payments(id),
		event_type  TEXT NOT NULL,
		reference   TEXT NOT NULL,
		payload     JSONB NOT NULL,
		status      TEXT NOT NULL DEFAULT 'PENDING',
		attempts    INT NOT NULL DEFAULT 0,
		last_error  TEXT,
		next_run_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS payment_events_pending_idx ON payment_events (next_run_at) WHERE status = 'PENDING'`,
	`CREATE TABLE IF NOT EXISTS idempotency_keys (
		store_id        UUID NOT NULL,
		key_id          TEXT NOT NULL,
		response_status INT NOT NULL,
		response_body   BYTEA NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (store_id, key_id)
	)`,
}

// Migrate creates the tables the service needs if they do not exist yet.
func Migrate(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
