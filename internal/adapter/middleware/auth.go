package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/binhetc/pos-ai/internal/core/security"
)

const claimsKey = "claims"

// Protected requires a valid Bearer access token and stores its claims on
// the request.
func Protected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Missing access token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Header Format"})
		}

		claims, err := security.ParseToken(parts[1], secret)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid access token"})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequirePermission rejects callers whose token lacks permission.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil || !claims.Has(permission) {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Missing permission " + permission})
		}
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by Protected, or nil.
func ClaimsFrom(c *fiber.Ctx) *security.Claims {
	claims, _ := c.Locals(claimsKey).(*security.Claims)
	return claims
}
