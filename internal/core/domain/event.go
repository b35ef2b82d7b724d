package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

// OutboxMaxAttempts is how many deliveries an event gets before it is parked
// as failed.
const OutboxMaxAttempts = 5

// OutboxBackoff is the delay before the next delivery after attempts failures.
func OutboxBackoff(attempts int) time.Duration {
	return time.Duration(attempts*10+10) * time.Second
}

// EventTypeFor returns the outbox event type for a terminal payment status.
func EventTypeFor(status PaymentStatus) string {
	if status == PaymentCompleted {
		return EventPaymentCompleted
	}
	return EventPaymentFailed
}

// PaymentEvent is the payload published after a payment is finalized.
type PaymentEvent struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	Reference     string          `json:"reference"`
	OrderID       uuid.UUID       `json:"order_id"`
	StoreID       uuid.UUID       `json:"store_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	OrderAdvanced bool            `json:"order_advanced"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OutboxEvent is a stored event waiting for delivery.
type OutboxEvent struct {
	ID        uuid.UUID
	Type      string
	Reference string
	Payload   json.RawMessage
	Attempts  int
}
