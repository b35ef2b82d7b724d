// Package reconcile turns verified gateway notifications into exactly-once
// payment finalization.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/binhetc/pos-ai/internal/core/domain"
	"github.com/binhetc/pos-ai/internal/core/gateway/momo"
	"github.com/binhetc/pos-ai/internal/core/gateway/vnpay"
)

// Store is the persistence the engine needs.
//
// Finalize must apply the payment transition and the order advance in one
// transaction, and only if the payment is still pending at write time. When
// another writer got there first it returns domain.ErrAlreadyFinalized.
type Store interface {
	GetPaymentByReference(ctx context.Context, reference string) (*domain.Payment, error)
	Finalize(ctx context.Context, f domain.Finalization) (domain.FinalizeResult, error)
}

type Secrets struct {
	VNPayHashSecret string
	MoMoSecretKey   string
}

// Notification is a verified gateway callback in gateway-neutral form.
type Notification struct {
	Gateway       domain.PaymentGateway
	Reference     string
	Amount        decimal.Decimal
	AmountErr     error
	Success       bool
	TransactionID string
	Raw           json.RawMessage
}

type Engine struct {
	store   Store
	secrets Secrets
	log     *slog.Logger
}

func NewEngine(store Store, secrets Secrets, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, secrets: secrets, log: logger}
}

// HandleVNPay processes a VNPay IPN given its flattened query parameters.
func (e *Engine) HandleVNPay(ctx context.Context, params map[string]string) VNPayAck {
	ref := params["vnp_TxnRef"]

	if !vnpay.Verify(params, e.secrets.VNPayHashSecret) {
		e.log.Warn("VNPay IPN: invalid signature", "reference", ref)
		return vnpayAck(OutcomeInvalidSignature)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		e.log.Error("VNPay IPN: encode payload", "reference", ref, "error", err)
		return vnpayAck(OutcomeInternal)
	}

	amount, amountErr := domain.FromMinorUnits(params["vnp_Amount"], 2)
	n := Notification{
		Gateway:       domain.GatewayVNPay,
		Reference:     ref,
		Amount:        amount,
		AmountErr:     amountErr,
		Success:       params["vnp_ResponseCode"] == "00",
		TransactionID: params["vnp_TransactionNo"],
		Raw:           raw,
	}
	return vnpayAck(e.process(ctx, n))
}

// HandleMoMo processes a MoMo IPN body.
func (e *Engine) HandleMoMo(ctx context.Context, p momo.Payload) MoMoAck {
	ref := p.Field("orderId")

	if !momo.VerifyIPN(p, e.secrets.MoMoSecretKey) {
		e.log.Warn("MoMo IPN: invalid signature", "reference", ref)
		return momoAck(OutcomeInvalidSignature)
	}

	amount, amountErr := domain.ParseAmount(p.Field("amount"))
	code, ok := p.ResultCode()
	n := Notification{
		Gateway:       domain.GatewayMoMo,
		Reference:     ref,
		Amount:        amount,
		AmountErr:     amountErr,
		Success:       ok && code == 0,
		TransactionID: p.Field("transId"),
		Raw:           p.Raw(),
	}
	return momoAck(e.process(ctx, n))
}

// process runs lookup, idempotency, amount and finalize for a notification
// whose signature has already been checked.
func (e *Engine) process(ctx context.Context, n Notification) Outcome {
	log := e.log.With("gateway", string(n.Gateway), "reference", n.Reference)

	payment, err := e.store.GetPaymentByReference(ctx, n.Reference)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		log.Warn("IPN: payment not found")
		return OutcomeNotFound
	}
	if err != nil {
		log.Error("IPN: payment lookup failed", "error", err)
		return OutcomeInternal
	}
	if payment.Gateway != n.Gateway {
		log.Warn("IPN: reference belongs to another gateway", "payment_id", payment.ID, "payment_gateway", string(payment.Gateway))
		return OutcomeNotFound
	}

	if payment.Status != domain.PaymentPending {
		log.Debug("IPN: payment already processed", "payment_id", payment.ID, "status", string(payment.Status))
		return OutcomeAlreadyProcessed
	}

	if n.AmountErr != nil || !n.Amount.Equal(payment.Amount) {
		log.Warn("IPN: amount mismatch",
			"payment_id", payment.ID,
			"expected", payment.Amount.StringFixed(domain.AmountScale),
			"received", n.Amount.String(),
			"parse_error", n.AmountErr,
		)
		return OutcomeInvalidAmount
	}

	status := domain.PaymentFailed
	if n.Success {
		status = domain.PaymentCompleted
	}

	res, err := e.store.Finalize(ctx, domain.Finalization{
		PaymentID:       payment.ID,
		Reference:       payment.Reference,
		Status:          status,
		TransactionID:   n.TransactionID,
		GatewayResponse: n.Raw,
	})
	if errors.Is(err, domain.ErrAlreadyFinalized) {
		log.Debug("IPN: lost finalize race, already processed", "payment_id", payment.ID)
		return OutcomeAlreadyProcessed
	}
	if err != nil {
		log.Error("IPN: finalize failed", "payment_id", payment.ID, "error", err)
		return OutcomeInternal
	}

	log.Info("IPN processed",
		"payment_id", payment.ID,
		"status", string(status),
		"transaction_id", n.TransactionID,
		"order_advanced", res.OrderAdvanced,
	)
	return OutcomeConfirmed
}
