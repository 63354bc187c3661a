package handler

import (
	"go-extension-dashboard/internal/middleware"
	"go-extension-dashboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetCenterDashboard returns the summary of the center in the path
// GET /api/v1/center/:slug/dashboard
func (h *DashboardHandler) GetCenterDashboard(c *fiber.Ctx) error {
	active, ok := middleware.SessionFrom(c)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}
	current, ok := middleware.CenterFrom(c)
	if !ok {
		return c.Status(409).JSON(fiber.Map{"error": "no centers available"})
	}

	summary, err := h.service.CenterDashboard(c.UserContext(), active.Role, current)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard"})
	}
	return c.JSON(summary)
}
