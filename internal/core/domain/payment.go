package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentCancelled  PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no gateway notification may move the payment
// out of this status.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

// ManuallySettable reports whether staff may set this status by hand.
// Completed and failed are only reached through gateway finalization, which
// also advances the order.
func (s PaymentStatus) ManuallySettable() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCancelled:
		return true
	}
	return false
}

type PaymentGateway string

const (
	GatewayCash         PaymentGateway = "cash"
	GatewayCard         PaymentGateway = "card"
	GatewayBankTransfer PaymentGateway = "bank_transfer"
	GatewayMoMo         PaymentGateway = "momo"
	GatewayVNPay        PaymentGateway = "vnpay"
	GatewayZaloPay      PaymentGateway = "zalopay"
)

func (g PaymentGateway) Valid() bool {
	switch g {
	case GatewayCash, GatewayCard, GatewayBankTransfer, GatewayMoMo, GatewayVNPay, GatewayZaloPay:
		return true
	}
	return false
}

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrAlreadyFinalized    = errors.New("payment already finalized")
	ErrDuplicateReference  = errors.New("payment reference already exists")
	ErrInvalidPaymentPatch = errors.New("invalid payment patch")
	ErrPaymentFinalized    = errors.New("payment is finalized")
)

// Payment is one purchase attempt against one gateway. Reference is the
// merchant correlation string sent to the gateway; it is unique and never
// changes after creation.
type Payment struct {
	ID              uuid.UUID       `json:"id"`
	Reference       string          `json:"reference"`
	Amount          decimal.Decimal `json:"amount"`
	Gateway         PaymentGateway  `json:"gateway"`
	Status          PaymentStatus   `json:"status"`
	TransactionID   *string         `json:"transaction_id"`
	GatewayResponse json.RawMessage `json:"gateway_response"`
	Note            *string         `json:"note"`
	OrderID         uuid.UUID       `json:"order_id"`
	StoreID         uuid.UUID       `json:"store_id"`
	ProcessedBy     *uuid.UUID      `json:"processed_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PaymentPatch carries a manual update. Nil fields are left untouched.
type PaymentPatch struct {
	Status          *PaymentStatus  `json:"status"`
	TransactionID   *string         `json:"transaction_id"`
	GatewayResponse json.RawMessage `json:"gateway_response"`
	Note            *string         `json:"note"`
}

func (p PaymentPatch) Empty() bool {
	return p.Status == nil && p.TransactionID == nil && p.GatewayResponse == nil && p.Note == nil
}

// TouchesSettlement reports whether the patch changes fields that are frozen
// once a payment is finalized.
func (p PaymentPatch) TouchesSettlement() bool {
	return p.Status != nil || p.TransactionID != nil || p.GatewayResponse != nil
}

func (p PaymentPatch) Validate() error {
	if p.Status != nil && (!p.Status.Valid() || !p.Status.ManuallySettable()) {
		return ErrInvalidPaymentPatch
	}
	if p.GatewayResponse != nil && !json.Valid(p.GatewayResponse) {
		return ErrInvalidPaymentPatch
	}
	return nil
}

// CheckAgainst reports whether the patch may be applied to a payment that is
// currently in status. Only the note of a finalized payment can change.
func (p PaymentPatch) CheckAgainst(current PaymentStatus) error {
	if current.IsTerminal() && p.TouchesSettlement() {
		return ErrPaymentFinalized
	}
	return nil
}

// Apply merges the set fields of the patch into payment.
func (p PaymentPatch) Apply(payment *Payment) {
	if p.Status != nil {
		payment.Status = *p.Status
	}
	if p.TransactionID != nil {
		id := *p.TransactionID
		payment.TransactionID = &id
	}
	if p.GatewayResponse != nil {
		payment.GatewayResponse = append(json.RawMessage(nil), p.GatewayResponse...)
	}
	if p.Note != nil {
		note := *p.Note
		payment.Note = &note
	}
}

// Finalization is the terminal transition requested for a pending payment.
type Finalization struct {
	PaymentID       uuid.UUID
	Reference       string
	Status          PaymentStatus
	TransactionID   string
	GatewayResponse json.RawMessage
}

type FinalizeResult struct {
	OrderAdvanced bool
}
