package handler

import (
	"go-extension-dashboard/internal/access"
	"go-extension-dashboard/internal/model"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	resolver *access.Resolver
}

func NewRoleHandler(resolver *access.Resolver) *RoleHandler {
	return &RoleHandler{resolver: resolver}
}

type roleResponse struct {
	model.Role
	Permissions map[model.Resource]access.Level `json:"permissions"`
}

// GetRoles returns the role catalog with each role's effective permissions
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles := make([]roleResponse, len(model.DefaultRoles))
	for i, r := range model.DefaultRoles {
		roles[i] = roleResponse{Role: r, Permissions: h.resolver.Row(r.Code)}
	}
	return c.JSON(roles)
}

// GetResources returns the resource catalog
// GET /api/v1/resources
func (h *RoleHandler) GetResources(c *fiber.Ctx) error {
	return c.JSON(model.DefaultResources)
}
