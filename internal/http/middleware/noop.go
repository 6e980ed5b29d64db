package middleware

import "github.com/gofiber/fiber/v2"

// Noop passes the request straight through. It stands in for the
// tracing middleware when OTEL_SDK_DISABLED is set, keeping the chain
// shape identical across environments.
func Noop() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Next()
	}
}
