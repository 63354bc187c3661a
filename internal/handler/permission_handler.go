package handler

import (
	"go-extension-dashboard/internal/access"
	"go-extension-dashboard/internal/middleware"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/session"

	"github.com/gofiber/fiber/v2"
)

type PermissionHandler struct {
	resolver *access.Resolver
}

func NewPermissionHandler(resolver *access.Resolver) *PermissionHandler {
	return &PermissionHandler{resolver: resolver}
}

// MyPermissions returns the caller's effective level on every resource
// GET /api/v1/me/permissions
func (h *PermissionHandler) MyPermissions(c *fiber.Ctx) error {
	active, ok := middleware.SessionFrom(c)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}
	return c.JSON(fiber.Map{
		"role":        active.Role,
		"permissions": h.resolver.Row(active.Role),
	})
}

// Check answers a single permission question for the caller
// GET /api/v1/me/permissions/check?resource=forms&level=edit
func (h *PermissionHandler) Check(c *fiber.Ctx) error {
	resource := model.Resource(c.Query("resource"))
	if resource == "" {
		return c.Status(400).JSON(fiber.Map{"error": "resource is required"})
	}
	level := access.ParseLevel(c.Query("level", "read"))

	var src session.Source
	if active, ok := middleware.SessionFrom(c); ok {
		src = active
	}
	return c.JSON(h.resolver.Query(src, resource, level))
}
