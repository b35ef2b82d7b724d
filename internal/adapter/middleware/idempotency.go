package middleware

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IdempotencyStore interface {
	Lookup(ctx context.Context, storeID uuid.UUID, key string) (status int, body []byte, found bool, err error)
	Save(ctx context.Context, storeID uuid.UUID, key string, status int, body []byte) error
}

// Idempotency replays the first response recorded for an Idempotency-Key
// within the caller's store and route. Server errors are not recorded so the
// client can retry them.
func Idempotency(store IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("Idempotency-Key")
		claims := ClaimsFrom(c)
		if key == "" || claims == nil {
			return c.Next()
		}

		scoped := routeKey(c, key)
		status, body, found, err := store.Lookup(c.Context(), claims.StoreID, scoped)
		if err != nil {
			slog.Error("Idempotency lookup failed", "error", err, "key", key)
		}
		if found {
			slog.Info("Idempotency hit, returning cached response", "key", key, "store_id", claims.StoreID)
			c.Set("X-Idempotency-Hit", "true")
			c.Set("Content-Type", "application/json")
			return c.Status(status).Send(body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		resStatus := c.Response().StatusCode()
		if resStatus >= fiber.StatusInternalServerError {
			return nil
		}
		resBody := append([]byte(nil), c.Response().Body()...)

		if err := store.Save(c.Context(), claims.StoreID, scoped, resStatus, resBody); err != nil {
			slog.Error("Failed to save idempotency key", "error", err, "key", key)
		} else {
			slog.Debug("Idempotency key saved", "key", key)
		}
		return nil
	}
}

// routeKey binds a client key to the endpoint it was sent to.
func routeKey(c *fiber.Ctx, key string) string {
	return c.Method() + " " + c.Path() + " " + key
}
