package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/binhetc/pos-ai/internal/adapter/middleware"
	"github.com/binhetc/pos-ai/internal/core/security"
)

type Routes struct {
	IPN         *IPNHandler
	Payments    *PaymentHandler
	JWTSecret   string
	Idempotency middleware.IdempotencyStore
	// Ping checks the database for /healthz. Optional.
	Ping func(ctx context.Context) error
}

// Register mounts the payment API on app.
func Register(app *fiber.App, r Routes) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if r.Ping != nil {
			if err := r.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": "database unreachable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	payments := app.Group("/api/v1/payments")

	// Public gateway callbacks
	payments.Get("/vnpay/ipn", r.IPN.VNPay)
	payments.Post("/vnpay/ipn", r.IPN.VNPay)
	payments.Post("/vnpay/webhook", r.IPN.VNPay)
	payments.Post("/momo/ipn", r.IPN.MoMo)
	payments.Post("/momo/webhook", r.IPN.MoMo)

	// Store staff
	auth := middleware.Protected(r.JWTSecret)
	canCreate := middleware.RequirePermission(security.PermPaymentsCreate)
	canUpdate := middleware.RequirePermission(security.PermPaymentsUpdate)
	idem := middleware.Idempotency(r.Idempotency)

	payments.Post("/vnpay/create", auth, canCreate, idem, r.Payments.CreateVNPay)
	payments.Post("/momo/create", auth, canCreate, idem, r.Payments.CreateMoMo)
	payments.Get("/", auth, r.Payments.List)
	payments.Post("/", auth, canCreate, idem, r.Payments.Create)
	payments.Get("/:id", auth, r.Payments.Get)
	payments.Patch("/:id", auth, canUpdate, r.Payments.Patch)
}
