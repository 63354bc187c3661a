package middleware

import (
	"strings"

	"go-extension-dashboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// RequireAuth validates the JWT, checks it is the user's current token and
// attaches the user's live session to the request.
func RequireAuth(authService service.AuthService, sessions service.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, errMsg := bearerToken(c)
		if errMsg != "" {
			return c.Status(401).JSON(fiber.Map{"error": errMsg})
		}

		user, err := authService.Authorize(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		active := sessions.Ensure(user)
		sessions.Touch(user.ID)

		c.Locals("user_id", user.ID.String())
		c.Locals("user_email", user.Email)
		c.Locals("user_name", user.FullName)
		c.Locals("user_role", string(active.Role))
		c.Locals(sessionKey, active)

		return c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter browsers use for websocket upgrades.
func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, ""
		}
		return "", "Missing authorization token"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", "Invalid authorization format. Use: Bearer <token>"
	}
	return parts[1], ""
}

// SessionFrom returns the session RequireAuth attached, if any.
func SessionFrom(c *fiber.Ctx) (*service.ActiveSession, bool) {
	active, ok := c.Locals(sessionKey).(*service.ActiveSession)
	return active, ok && active != nil
}
