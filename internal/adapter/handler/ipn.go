package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/binhetc/pos-ai/internal/core/gateway/momo"
	"github.com/binhetc/pos-ai/internal/core/reconcile"
)

// IPNHandler receives gateway server-to-server notifications. It is public;
// trust comes from the gateway signature only.
type IPNHandler struct {
	Engine *reconcile.Engine
}

// VNPay accepts the IPN as a GET query string or as a POST with the same
// parameters in the query and/or a urlencoded form body. Later values win.
func (h *IPNHandler) VNPay(c *fiber.Ctx) error {
	params := make(map[string]string)
	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})
	if c.Method() == fiber.MethodPost {
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			params[string(key)] = string(value)
		})
	}

	ack := h.Engine.HandleVNPay(c.UserContext(), params)
	return c.Status(fiber.StatusOK).JSON(ack)
}

func (h *IPNHandler) MoMo(c *fiber.Ctx) error {
	payload, err := momo.ParsePayload(c.Body())
	if err != nil {
		slog.Warn("Malformed MoMo IPN body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}

	ack := h.Engine.HandleMoMo(c.UserContext(), payload)
	return c.Status(fiber.StatusOK).JSON(ack)
}
