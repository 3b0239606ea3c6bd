package middleware

import (
	"slices"

	"padtracker-console/internal/session"

	"github.com/gofiber/fiber/v2"
)

// RequireRole admits the request only for the listed roles. It must run after SessionGuard.
func RequireRole(allowed ...session.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := CurrentSession(c)
		if sess == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !slices.Contains(allowed, sess.Role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Insufficient permissions",
			})
		}

		return c.Next()
	}
}
