package middleware

import (
	"fmt"

	"go-extension-dashboard/internal/access"
	"go-extension-dashboard/internal/metrics"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/session"

	"github.com/gofiber/fiber/v2"
)

// SafeLocation is where a denied client is sent.
const SafeLocation = "/"

// RequirePermission lets the request through only when the caller's role
// reaches level on resource. Requests without a session are evaluated as
// the lowest role; a session that is still resolving is never granted.
func RequirePermission(resolver *access.Resolver, resource model.Resource, level access.Level, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var src session.Source
		if active, ok := SessionFrom(c); ok {
			src = active
		}

		res := resolver.Query(src, resource, level)
		if res.IsLoading {
			return c.Status(503).JSON(fiber.Map{"error": "session pending", "is_loading": true})
		}

		m.ObservePermissionCheck(string(resource), res.HasPermission)
		if !res.HasPermission {
			return c.Status(403).JSON(fiber.Map{
				"error":    fmt.Sprintf("Forbidden: requires '%s' on '%s'", level, resource),
				"redirect": SafeLocation,
			})
		}
		return c.Next()
	}
}
