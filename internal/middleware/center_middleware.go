package middleware

import (
	"context"
	"time"

	"go-extension-dashboard/internal/center"
	"go-extension-dashboard/internal/metrics"
	"go-extension-dashboard/internal/model"

	"github.com/gofiber/fiber/v2"
)

const centerKey = "center"

// CenterScope reconciles the center slug in the request path with the
// session's current center. The path wins when it names an available
// center; an unknown slug is redirected to the first available center.
func CenterScope(wait time.Duration, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		active, ok := SessionFrom(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), wait)
		defer cancel()
		if err := active.Center.WaitReady(ctx); err != nil {
			return c.Status(503).JSON(fiber.Map{"error": "center context still loading", "is_loading": true})
		}

		location := c.Path()
		active.Nav.SetLocation(location)
		res := active.Center.Reconcile(ctx, location)
		m.ObserveReconcile(res.Outcome.String())

		switch res.Outcome {
		case center.Redirected:
			c.Set(fiber.HeaderLocation, res.Location)
			return c.Status(fiber.StatusTemporaryRedirect).JSON(fiber.Map{"redirect": res.Location})
		case center.NoCenters:
			return c.Status(409).JSON(fiber.Map{"error": "no centers available"})
		}

		if current := active.Center.Snapshot().CurrentCenter; current != nil {
			c.Locals(centerKey, *current)
		}
		return c.Next()
	}
}

// CenterFrom returns the center CenterScope resolved for the request.
func CenterFrom(c *fiber.Ctx) (model.Center, bool) {
	current, ok := c.Locals(centerKey).(model.Center)
	return current, ok
}
