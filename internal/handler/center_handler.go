package handler

import (
	"errors"
	"strconv"

	"go-extension-dashboard/internal/center"
	"go-extension-dashboard/internal/metrics"
	"go-extension-dashboard/internal/middleware"
	"go-extension-dashboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CenterHandler struct {
	centerService service.CenterService
	importService service.CenterImportService
	metrics       *metrics.Metrics
}

func NewCenterHandler(centerService service.CenterService, importService service.CenterImportService, m *metrics.Metrics) *CenterHandler {
	return &CenterHandler{centerService: centerService, importService: importService, metrics: m}
}

// GetContext returns the caller's center selection
// GET /api/v1/centers/context
func (h *CenterHandler) GetContext(c *fiber.Ctx) error {
	active, ok := middleware.SessionFrom(c)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}
	return c.JSON(active.Center.Snapshot())
}

// Switch changes the caller's current center
// POST /api/v1/centers/switch
func (h *CenterHandler) Switch(c *fiber.Ctx) error {
	active, ok := middleware.SessionFrom(c)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req service.SwitchCenterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	res, err := h.centerService.Switch(c.UserContext(), active, &req)
	switch {
	case errors.Is(err, center.ErrCenterNotAvailable):
		return c.Status(403).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, center.ErrClosed):
		return c.Status(401).JSON(fiber.Map{"error": "Session closed"})
	case err != nil:
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	h.metrics.ObserveCenterSwitch(res.Changed)

	return c.JSON(fiber.Map{
		"changed":  res.Changed,
		"redirect": res.Location,
		"state":    active.Center.Snapshot(),
	})
}

// GetCenters returns every center, active or not
// GET /api/v1/centers
func (h *CenterHandler) GetCenters(c *fiber.Ctx) error {
	centers, err := h.centerService.List(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch centers"})
	}
	return c.JSON(centers)
}

// CreateCenter handles center creation
// POST /api/v1/centers
func (h *CenterHandler) CreateCenter(c *fiber.Ctx) error {
	var req service.CreateCenterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	created, err := h.centerService.Create(c.UserContext(), &req)
	if errors.Is(err, center.ErrDuplicateSlug) {
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Center created successfully",
		"data":    created,
	})
}

// DeactivateCenter hides a center from every user
// PATCH /api/v1/centers/:id/deactivate
func (h *CenterHandler) DeactivateCenter(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid center ID"})
	}

	err = h.centerService.Deactivate(c.UserContext(), uint(id))
	switch {
	case errors.Is(err, service.ErrCenterNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrDefaultInactive):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(500).JSON(fiber.Map{"error": "Failed to deactivate center"})
	}

	return c.JSON(fiber.Map{"message": "Center deactivated successfully"})
}

// ImportCenters creates centers from an uploaded xlsx file
// POST /api/v1/centers/import (multipart field "file")
func (h *CenterHandler) ImportCenters(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "file is required"})
	}
	file, err := fh.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Failed to read upload"})
	}
	defer file.Close()

	report, err := h.importService.ImportCenters(c.UserContext(), file)
	if errors.Is(err, service.ErrImportFormat) {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Import failed"})
	}
	return c.JSON(report)
}
