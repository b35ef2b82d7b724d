// Package checkout starts gateway payments and manages payment records for a
// store.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/binhetc/pos-ai/internal/core/domain"
	"github.com/binhetc/pos-ai/internal/core/gateway/momo"
)

// Repository is the storage the service works against.
type Repository interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	CreatePayment(ctx context.Context, p *domain.Payment) error
	GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	ListPayments(ctx context.Context, storeID uuid.UUID, f Filter, limit, offset int) ([]domain.Payment, int, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, patch domain.PaymentPatch) (*domain.Payment, error)
}

type MoMoCreator interface {
	CreatePayment(ctx context.Context, req momo.CreateRequest) (*momo.CreateResponse, error)
}

// ErrGatewayUnavailable is returned when the gateway could not be reached.
var ErrGatewayUnavailable = momo.ErrGatewayUnavailable

// GatewayRejectedError is a definite refusal from the gateway.
type GatewayRejectedError struct {
	Gateway domain.PaymentGateway
	Code    int
	Message string
}

func (e *GatewayRejectedError) Error() string {
	return fmt.Sprintf("%s rejected payment: %s (code %d)", e.Gateway, e.Message, e.Code)
}

// Actor is the authenticated caller. Every operation is scoped to its store.
type Actor struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
}

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PaymentURL string
}

type Service struct {
	repo  Repository
	vnpay VNPayConfig
	momo  MoMoCreator
	log   *slog.Logger

	now          func() time.Time
	newReference func() string
	newRequestID func() string
}

func NewService(repo Repository, vnpay VNPayConfig, momoClient MoMoCreator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		vnpay:        vnpay,
		momo:         momoClient,
		log:          logger,
		now:          time.Now,
		newReference: NewReference,
		newRequestID: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// NewReference returns a fresh 16 character upper-case correlation reference.
func NewReference() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
}

// loadOrder returns the order if it belongs to the actor's store.
func (s *Service) loadOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.StoreID != actor.StoreID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) newPendingPayment(actor Actor, orderID uuid.UUID, gateway domain.PaymentGateway, amount decimal.Decimal, reference, note string) *domain.Payment {
	now := s.now().UTC()
	processedBy := actor.UserID
	p := &domain.Payment{
		ID:          uuid.New(),
		Reference:   reference,
		Amount:      amount,
		Gateway:     gateway,
		Status:      domain.PaymentPending,
		OrderID:     orderID,
		StoreID:     actor.StoreID,
		ProcessedBy: &processedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if note != "" {
		p.Note = &note
	}
	return p
}
