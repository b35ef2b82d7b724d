package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/binhetc/pos-ai/internal/core/domain"
)

type Filter struct {
	OrderID *uuid.UUID
	Gateway domain.PaymentGateway
	Status  domain.PaymentStatus
}

type Page struct {
	Items []domain.Payment `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

func (s *Service) List(ctx context.Context, storeID uuid.UUID, f Filter, page, size int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 50
	}

	items, total, err := s.repo.ListPayments(ctx, storeID, f, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	if items == nil {
		items = []domain.Payment{}
	}
	return &Page{Items: items, Total: total, Page: page, Size: size}, nil
}

// Get returns a payment of the store. Payments of other stores are reported
// as not found.
func (s *Service) Get(ctx context.Context, storeID, id uuid.UUID) (*domain.Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.StoreID != storeID {
		return nil, domain.ErrPaymentNotFound
	}
	return p, nil
}

type ManualRequest struct {
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	Gateway   domain.PaymentGateway
	Note      string
	Reference string
}

// CreateManual records a pending payment taken outside the online gateways,
// e.g. cash at the till.
func (s *Service) CreateManual(ctx context.Context, actor Actor, req ManualRequest) (*domain.Payment, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if !req.Gateway.Valid() {
		return nil, fmt.Errorf("unknown gateway %q", req.Gateway)
	}
	if _, err := s.loadOrder(ctx, actor, req.OrderID); err != nil {
		return nil, err
	}

	ref := req.Reference
	if ref == "" {
		ref = s.newReference()
	}

	payment := s.newPendingPayment(actor, req.OrderID, req.Gateway, req.Amount, ref, req.Note)
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			return nil, err
		}
		return nil, fmt.Errorf("save payment: %w", err)
	}
	return payment, nil
}

// Patch applies a manual update. Settlement fields of a finalized payment are
// frozen; the repository re-checks this against the stored row.
func (s *Service) Patch(ctx context.Context, storeID, id uuid.UUID, patch domain.PaymentPatch) (*domain.Payment, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}
	if err := patch.CheckAgainst(current.Status); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdatePayment(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.log.Info("Payment updated manually", "payment_id", id, "store_id", storeID)
	return updated, nil
}
