package handler

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/binhetc/pos-ai/internal/adapter/middleware"
	"github.com/binhetc/pos-ai/internal/core/checkout"
	"github.com/binhetc/pos-ai/internal/core/domain"
)

type PaymentHandler struct {
	Service  *checkout.Service
	validate *validator.Validate
}

func NewPaymentHandler(svc *checkout.Service) *PaymentHandler {
	return &PaymentHandler{Service: svc, validate: validator.New()}
}

type CreateVNPayRequest struct {
	OrderID   string          `json:"order_id" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"`
	OrderInfo string          `json:"order_info" validate:"max=255"`
	ReturnURL string          `json:"return_url" validate:"omitempty,url"`
	IPNURL    string          `json:"ipn_url" validate:"omitempty,url"`
}

type CreateMoMoRequest struct {
	OrderID     string          `json:"order_id" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
	OrderInfo   string          `json:"order_info" validate:"max=255"`
	RedirectURL string          `json:"redirect_url" validate:"required,url"`
	IPNURL      string          `json:"ipn_url" validate:"required,url"`
}

type CreatePaymentRequest struct {
	OrderID   string          `json:"order_id" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"`
	Gateway   string          `json:"gateway" validate:"required,oneof=cash card bank_transfer momo vnpay zalopay"`
	Note      string          `json:"note" validate:"max=500"`
	Reference string          `json:"reference" validate:"omitempty,max=64"`
}

func actorFrom(c *fiber.Ctx) checkout.Actor {
	claims := middleware.ClaimsFrom(c)
	return checkout.Actor{UserID: claims.UserID, StoreID: claims.StoreID}
}

var errInvalidBody = errors.New("invalid body")

// bind parses the JSON body into req and runs its validation tags.
func (h *PaymentHandler) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return errInvalidBody
	}
	return h.validate.Struct(req)
}

func (h *PaymentHandler) CreateVNPay(c *fiber.Ctx) error {
	var req CreateVNPayRequest
	if err := h.bind(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := h.Service.CreateVNPay(c.UserContext(), actorFrom(c), checkout.VNPayRequest{
		OrderID:   uuid.MustParse(req.OrderID),
		Amount:    req.Amount,
		OrderInfo: req.OrderInfo,
		ReturnURL: req.ReturnURL,
		IPNURL:    req.IPNURL,
		ClientIP:  c.IP(),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *PaymentHandler) CreateMoMo(c *fiber.Ctx) error {
	var req CreateMoMoRequest
	if err := h.bind(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := h.Service.CreateMoMo(c.UserContext(), actorFrom(c), checkout.MoMoRequest{
		OrderID:     uuid.MustParse(req.OrderID),
		Amount:      req.Amount,
		OrderInfo:   req.OrderInfo,
		RedirectURL: req.RedirectURL,
		IPNURL:      req.IPNURL,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *PaymentHandler) List(c *fiber.Ctx) error {
	var f checkout.Filter
	if raw := c.Query("order_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order_id"})
		}
		f.OrderID = &id
	}
	if raw := c.Query("gateway"); raw != "" {
		f.Gateway = domain.PaymentGateway(raw)
		if !f.Gateway.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid gateway"})
		}
	}
	if raw := c.Query("status"); raw != "" {
		f.Status = domain.PaymentStatus(raw)
		if !f.Status.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
	}

	page, err := h.Service.List(c.UserContext(), actorFrom(c).StoreID, f, c.QueryInt("page", 1), c.QueryInt("size", 50))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	p, err := h.Service.Get(c.UserContext(), actorFrom(c).StoreID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if err := h.bind(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	p, err := h.Service.CreateManual(c.UserContext(), actorFrom(c), checkout.ManualRequest{
		OrderID:   uuid.MustParse(req.OrderID),
		Amount:    req.Amount,
		Gateway:   domain.PaymentGateway(req.Gateway),
		Note:      req.Note,
		Reference: req.Reference,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *PaymentHandler) Patch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment id"})
	}

	var patch domain.PaymentPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	p, err := h.Service.Patch(c.UserContext(), actorFrom(c).StoreID, id, patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}

// writeError maps service errors to HTTP responses.
func writeError(c *fiber.Ctx, err error) error {
	var rejected *checkout.GatewayRejectedError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	case errors.Is(err, domain.ErrPaymentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment not found"})
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidPaymentPatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateReference), errors.Is(err, domain.ErrPaymentFinalized):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &rejected):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":       "Payment rejected by gateway",
			"gateway":     rejected.Gateway,
			"result_code": rejected.Code,
			"message":     rejected.Message,
		})
	case errors.Is(err, checkout.ErrGatewayUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment gateway unavailable"})
	default:
		slog.Error("Request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal error"})
	}
}
