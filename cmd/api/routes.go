package main

import (
	"go-extension-dashboard/internal/access"
	"go-extension-dashboard/internal/config"
	"go-extension-dashboard/internal/handler"
	"go-extension-dashboard/internal/metrics"
	"go-extension-dashboard/internal/middleware"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/service"
	"go-extension-dashboard/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	authService service.AuthService,
	sessions service.SessionService,
	resolver *access.Resolver,
	hub *ws.Hub,
	m *metrics.Metrics,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	roleHandler *handler.RoleHandler,
	permissionHandler *handler.PermissionHandler,
	centerHandler *handler.CenterHandler,
	dashboardHandler *handler.DashboardHandler,
) {
	requireAuth := middleware.RequireAuth(authService, sessions)
	can := func(resource model.Resource, level access.Level) fiber.Handler {
		return middleware.RequirePermission(resolver, resource, level, m)
	}

	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": sessions.Count(), "ws_clients": hub.Count()})
	})

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Post("/auth/heartbeat", authHandler.Heartbeat)
	protected.Post("/auth/logout", authHandler.Logout)

	protected.Get("/me/permissions", permissionHandler.MyPermissions)
	protected.Get("/me/permissions/check", permissionHandler.Check)

	protected.Get("/roles", can(model.ResourceRoles, access.Read), roleHandler.GetRoles)
	protected.Get("/resources", can(model.ResourceRoles, access.Read), roleHandler.GetResources)

	// Center selection
	protected.Get("/centers/context", centerHandler.GetContext)
	protected.Post("/centers/switch", centerHandler.Switch)

	// Center administration
	protected.Get("/centers", can(model.ResourceCenters, access.Read), centerHandler.GetCenters)
	protected.Post("/centers", can(model.ResourceCenters, access.Admin), centerHandler.CreateCenter)
	protected.Post("/centers/import", can(model.ResourceExcelImport, access.Write), centerHandler.ImportCenters)
	protected.Patch("/centers/:id/deactivate", can(model.ResourceCenters, access.Admin), centerHandler.DeactivateCenter)
	protected.Get("/centers/:id/users", can(model.ResourceUsers, access.Read), userHandler.GetCenterUsers)

	// User management
	protected.Get("/users", can(model.ResourceUsers, access.Read), userHandler.GetUsers)
	protected.Get("/users/:id", can(model.ResourceUsers, access.Read), userHandler.GetUser)
	protected.Post("/users", can(model.ResourceUsers, access.Write), userHandler.CreateUser)
	protected.Put("/users/:id", can(model.ResourceUsers, access.Write), userHandler.UpdateUser)
	protected.Delete("/users/:id", can(model.ResourceUsers, access.Admin), userHandler.DeleteUser)
	protected.Get("/users/:id/centers", can(model.ResourceUsers, access.Read), userHandler.GetUserCenters)
	protected.Put("/users/:id/centers", can(model.ResourceUsers, access.Write), userHandler.UpdateUserCenters)

	// Center-scoped pages
	scoped := protected.Group("/center/:slug", middleware.CenterScope(cfg.CenterInitTimeout, m))
	scoped.Get("/dashboard", can(model.ResourceDashboard, access.Read), dashboardHandler.GetCenterDashboard)

	// WebSocket
	app.Use("/ws", requireAuth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		client := &ws.Client{UserID: userID, Conn: c}
		hub.Attach(client)
		defer hub.Detach(client)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
