package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/binhetc/pos-ai/internal/core/checkout"
	"github.com/binhetc/pos-ai/internal/core/domain"
)

const uniqueViolation = "23505"

const terminalStatuses = `('completed', 'failed', 'refunded', 'cancelled')`

const paymentColumns = `id, reference, amount::text, gateway, status, transaction_id,
	gateway_response, note, order_id, store_id, processed_by, created_at, updated_at`

type PaymentRepository struct {
	db DB
}

func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var amount string
	var response []byte
	err := row.Scan(
		&p.ID, &p.Reference, &amount, &p.Gateway, &p.Status, &p.TransactionID,
		&response, &p.Note, &p.OrderID, &p.StoreID, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("payment %s: bad amount %q: %w", p.ID, amount, err)
	}
	if len(response) > 0 {
		p.GatewayResponse = json.RawMessage(response)
	}
	return &p, nil
}

// nullJSON turns an empty raw message into SQL NULL.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, reference, amount, gateway, status, transaction_id, gateway_response,
			note, order_id, store_id, processed_by, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.Reference, p.Amount.String(), string(p.Gateway), string(p.Status), p.TransactionID,
		nullJSON(p.GatewayResponse), p.Note, p.OrderID, p.StoreID, p.ProcessedBy, p.CreatedAt, p.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateReference
	}
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) GetPaymentByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, reference)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment by reference: %w", err)
	}
	return p, nil
}

func (r *PaymentRepository) ListPayments(ctx context.Context, storeID uuid.UUID, f checkout.Filter, limit, offset int) ([]domain.Payment, int, error) {
	where := []string{"store_id = $1"}
	args := []any{storeID}
	if f.OrderID != nil {
		args = append(args, *f.OrderID)
		where = append(where, fmt.Sprintf("order_id = $%d", len(args)))
	}
	if f.Gateway != "" {
		args = append(args, string(f.Gateway))
		where = append(where, fmt.Sprintf("gateway = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// UpdatePayment applies a manual patch. Once a payment is finalized only its
// note can change.
func (r *PaymentRepository) UpdatePayment(ctx context.Context, id uuid.UUID, patch domain.PaymentPatch) (*domain.Payment, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	query := `
		UPDATE payments SET
			status = COALESCE($2, status),
			transaction_id = COALESCE($3, transaction_id),
			gateway_response = COALESCE($4::jsonb, gateway_response),
			note = COALESCE($5, note),
			updated_at = NOW()
		WHERE id = $1
			AND (status NOT IN ` + terminalStatuses + `
				OR ($2::text IS NULL AND $3::text IS NULL AND $4::jsonb IS NULL))
		RETURNING ` + paymentColumns
	row := r.db.QueryRow(ctx, query, id, status, patch.TransactionID, nullJSON(patch.GatewayResponse), patch.Note)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.patchMissReason(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	return p, nil
}

// patchMissReason tells a missing payment apart from a finalized one after a
// guarded update matched no row.
func (r *PaymentRepository) patchMissReason(ctx context.Context, id uuid.UUID) error {
	var current domain.PaymentStatus
	err := r.db.QueryRow(ctx, `SELECT status FROM payments WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPaymentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get payment: %w", err)
	}
	return domain.ErrPaymentFinalized
}

// Finalize moves a pending payment to its terminal status in one transaction:
// the payment row, the owning order when the payment completed, and the
// outbox event. The status guard in the first UPDATE makes concurrent
// finalizations of the same payment serialize on the row lock; the loser
// matches no row and gets ErrAlreadyFinalized.
func (r *PaymentRepository) Finalize(ctx context.Context, f domain.Finalization) (domain.FinalizeResult, error) {
	var res domain.FinalizeResult

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return res, err
	}
	defer tx.Rollback(ctx)

	var orderID, storeID uuid.UUID
	var amount string
	err = tx.QueryRow(ctx, `
		UPDATE payments
		SET status = $2, transaction_id = NULLIF($3, ''), gateway_response = $4::jsonb, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING order_id, store_id, amount::text`,
		f.PaymentID, string(f.Status), f.TransactionID, nullJSON(f.GatewayResponse),
	).Scan(&orderID, &storeID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return res, domain.ErrAlreadyFinalized
	}
	if err != nil {
		return res, fmt.Errorf("update payment: %w", err)
	}

	if f.Status == domain.PaymentCompleted {
		tag, err := tx.Exec(ctx,
			`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
			orderID, string(domain.OrderPaidStatus))
		if err != nil {
			return res, fmt.Errorf("advance order: %w", err)
		}
		res.OrderAdvanced = tag.RowsAffected() == 1
	}

	event := domain.PaymentEvent{
		PaymentID:     f.PaymentID,
		Reference:     f.Reference,
		OrderID:       orderID,
		StoreID:       storeID,
		Amount:        decimal.RequireFromString(amount),
		Status:        f.Status,
		TransactionID: f.TransactionID,
		OrderAdvanced: res.OrderAdvanced,
		OccurredAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return res, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO payment_events (id, payment_id, event_type, reference, payload)
		VALUES ($1, $2, $3, $4, $5::jsonb)`,
		uuid.New(), f.PaymentID, domain.EventTypeFor(f.Status), f.Reference, string(payload))
	if err != nil {
		return res, fmt.Errorf("insert payment event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return res, err
	}
	return res, nil
}
