package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderVoided    OrderStatus = "voided"
	OrderRefunded  OrderStatus = "refunded"
)

// OrderPaidStatus is the status a pending order moves to once a payment for
// it completes.
const OrderPaidStatus = OrderCompleted

// Order is the slice of the order record the payment flows need. The order
// lifecycle itself belongs to the order service.
type Order struct {
	ID      uuid.UUID       `json:"id"`
	StoreID uuid.UUID       `json:"store_id"`
	Status  OrderStatus     `json:"status"`
	Total   decimal.Decimal `json:"total"`
}
