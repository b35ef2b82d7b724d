package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/binhetc/pos-ai/internal/core/domain"
	"github.com/binhetc/pos-ai/internal/core/gateway/momo"
	"github.com/binhetc/pos-ai/internal/core/gateway/vnpay"
)

type VNPayRequest struct {
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	OrderInfo string
	ReturnURL string
	IPNURL    string
	ClientIP  string
}

type VNPayResult struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	PaymentURL string    `json:"payment_url"`
	TxnRef     string    `json:"txn_ref"`
}

// CreateVNPay builds a signed VNPay redirect URL and records the pending
// payment under its vnp_TxnRef.
func (s *Service) CreateVNPay(ctx context.Context, actor Actor, req VNPayRequest) (*VNPayResult, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if _, err := s.loadOrder(ctx, actor, req.OrderID); err != nil {
		return nil, err
	}

	amount, err := domain.ToMinorUnits(req.Amount, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}

	ip := req.ClientIP
	if ip == "" {
		ip = "127.0.0.1"
	}

	ref := s.newReference()
	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    s.vnpay.TmnCode,
		"vnp_Amount":     amount,
		"vnp_CreateDate": s.now().UTC().Format("20060102150405"),
		"vnp_CurrCode":   string(domain.VND),
		"vnp_IpAddr":     ip,
		"vnp_Locale":     "vn",
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_TxnRef":     ref,
	}
	if req.ReturnURL != "" {
		params["vnp_ReturnUrl"] = req.ReturnURL
	}
	if req.IPNURL != "" {
		params["vnp_IpnUrl"] = req.IPNURL
	}
	paymentURL := vnpay.BuildPaymentURL(s.vnpay.PaymentURL, params, s.vnpay.HashSecret)

	payment := s.newPendingPayment(actor, req.OrderID, domain.GatewayVNPay, req.Amount, ref, req.OrderInfo)
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	s.log.Info("VNPay payment created", "payment_id", payment.ID, "reference", ref, "store_id", actor.StoreID)
	return &VNPayResult{PaymentID: payment.ID, PaymentURL: paymentURL, TxnRef: ref}, nil
}

type MoMoRequest struct {
	OrderID     uuid.UUID
	Amount      decimal.Decimal
	OrderInfo   string
	RedirectURL string
	IPNURL      string
}

type MoMoResult struct {
	PaymentID uuid.UUID `json:"payment_id"`
	Reference string    `json:"order_ref"`
	RequestID string    `json:"request_id"`
	PayURL    string    `json:"pay_url"`
	Deeplink  string    `json:"deeplink,omitempty"`
	QrCodeURL string    `json:"qr_code_url,omitempty"`
}

// CreateMoMo asks MoMo for a payment link. The pending payment is only stored
// once MoMo accepts the request.
func (s *Service) CreateMoMo(ctx context.Context, actor Actor, req MoMoRequest) (*MoMoResult, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if !req.Amount.IsInteger() {
		return nil, fmt.Errorf("%w: MoMo amounts must be whole VND", domain.ErrInvalidAmount)
	}
	if _, err := s.loadOrder(ctx, actor, req.OrderID); err != nil {
		return nil, err
	}

	ref := s.newReference()
	requestID := s.newRequestID()

	resp, err := s.momo.CreatePayment(ctx, momo.CreateRequest{
		RequestID:   requestID,
		OrderID:     ref,
		Amount:      req.Amount.IntPart(),
		OrderInfo:   req.OrderInfo,
		RedirectURL: req.RedirectURL,
		IPNURL:      req.IPNURL,
		RequestType: "captureWallet",
	})
	if err != nil {
		s.log.Error("MoMo create call failed", "reference", ref, "error", err)
		if errors.Is(err, ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if resp.ResultCode != 0 {
		s.log.Warn("MoMo rejected create", "reference", ref, "result_code", resp.ResultCode, "message", resp.Message)
		return nil, &GatewayRejectedError{Gateway: domain.GatewayMoMo, Code: resp.ResultCode, Message: resp.Message}
	}

	payment := s.newPendingPayment(actor, req.OrderID, domain.GatewayMoMo, req.Amount, ref, req.OrderInfo)
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	s.log.Info("MoMo payment created", "payment_id", payment.ID, "reference", ref, "store_id", actor.StoreID)
	return &MoMoResult{
		PaymentID: payment.ID,
		Reference: ref,
		RequestID: requestID,
		PayURL:    resp.PayURL,
		Deeplink:  resp.Deeplink,
		QrCodeURL: resp.QrCodeURL,
	}, nil
}
