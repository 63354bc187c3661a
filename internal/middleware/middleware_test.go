package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"go-extension-dashboard/internal/access"
	"go-extension-dashboard/internal/metrics"
	"go-extension-dashboard/internal/model"
	"go-extension-dashboard/internal/service"
	"go-extension-dashboard/pkg/kvstore"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sede  = model.Center{ID: 1, Name: "Sede Central", Slug: "sede-central", IsDefault: true}
	norte = model.Center{ID: 2, Name: "Centro Regional Norte", Slug: "regional-norte"}
)

type stubAuth struct {
	service.AuthService
	tokens map[string]*model.User
}

func (s *stubAuth) Authorize(token string) (*model.User, error) {
	if u, ok := s.tokens[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid token")
}

type staticDirectory struct {
	centers []model.Center
}

func (d staticDirectory) AvailableFor(context.Context, uuid.UUID, model.RoleCode) ([]model.Center, error) {
	return d.centers, nil
}

type fixture struct {
	app      *fiber.App
	sessions service.SessionService
	user     *model.User
}

func newFixture(t *testing.T, role model.RoleCode, centers []model.Center) *fixture {
	t.Helper()
	user := &model.User{Email: "ana@uni.edu", FullName: "Ana", Role: role, IsActive: true}
	user.ID = uuid.New()

	m := metrics.New()
	sessions := service.NewSessionService(kvstore.NewMemoryStore(), staticDirectory{centers: centers}, nil, m, nil, time.Second)
	auth := &stubAuth{tokens: map[string]*model.User{"good": user}}
	resolver := access.NewResolver(nil)

	app := fiber.New()
	api := app.Group("/api/v1", RequireAuth(auth, sessions))
	api.Get("/whoami", func(c *fiber.Ctx) error {
		active, ok := SessionFrom(c)
		if !ok {
			return c.SendStatus(500)
		}
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id"), "role": active.Role})
	})
	api.Get("/users", RequirePermission(resolver, model.ResourceUsers, access.Read, m), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	scoped := api.Group("/center/:slug", CenterScope(time.Second, m))
	scoped.Get("/dashboard", func(c *fiber.Ctx) error {
		current, ok := CenterFrom(c)
		if !ok {
			return c.SendStatus(500)
		}
		return c.JSON(current)
	})

	return &fixture{app: app, sessions: sessions, user: user}
}

func (f *fixture) get(t *testing.T, path, token string) (int, map[string]interface{}, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body, resp.Header.Get("Location")
}

func TestRequireAuth(t *testing.T) {
	f := newFixture(t, model.RoleUsuario, []model.Center{sede})

	status, body, _ := f.get(t, "/api/v1/whoami", "")
	assert.Equal(t, 401, status)
	assert.Equal(t, "Missing authorization token", body["error"])

	req := httptest.NewRequest("GET", "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Token good")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	status, _, _ = f.get(t, "/api/v1/whoami", "bad")
	assert.Equal(t, 401, status)

	status, body, _ = f.get(t, "/api/v1/whoami", "good")
	assert.Equal(t, 200, status)
	assert.Equal(t, f.user.ID.String(), body["user_id"])
	assert.Equal(t, "usuario", body["role"])
	assert.Equal(t, 1, f.sessions.Count())
}

func TestRequireAuth_QueryToken(t *testing.T) {
	f := newFixture(t, model.RoleUsuario, []model.Center{sede})

	status, _, _ := f.get(t, "/api/v1/whoami?token=good", "")
	assert.Equal(t, 200, status)
}

func TestRequirePermission(t *testing.T) {
	t.Run("denied role is redirected to the safe location", func(t *testing.T) {
		f := newFixture(t, model.RoleUsuario, []model.Center{sede})
		status, body, _ := f.get(t, "/api/v1/users", "good")
		assert.Equal(t, 403, status)
		assert.Equal(t, SafeLocation, body["redirect"])
	})

	t.Run("granted role passes", func(t *testing.T) {
		f := newFixture(t, model.RoleOperacion, []model.Center{sede})
		status, _, _ := f.get(t, "/api/v1/users", "good")
		assert.Equal(t, 200, status)
	})

	t.Run("superadmin passes", func(t *testing.T) {
		f := newFixture(t, model.RoleSuperAdmin, nil)
		status, _, _ := f.get(t, "/api/v1/users", "good")
		assert.Equal(t, 200, status)
	})
}

func TestCenterScope(t *testing.T) {
	t.Run("path naming an available center switches to it", func(t *testing.T) {
		f := newFixture(t, model.RoleUsuario, []model.Center{sede, norte})
		status, body, _ := f.get(t, "/api/v1/center/regional-norte/dashboard", "good")
		require.Equal(t, 200, status)
		assert.Equal(t, "regional-norte", body["slug"])

		active, ok := f.sessions.Get(f.user.ID)
		require.True(t, ok)
		assert.Equal(t, norte.ID, active.Center.Snapshot().CurrentCenter.ID)
	})

	t.Run("current center passes through", func(t *testing.T) {
		f := newFixture(t, model.RoleUsuario, []model.Center{sede, norte})
		status, body, _ := f.get(t, "/api/v1/center/sede-central/dashboard", "good")
		require.Equal(t, 200, status)
		assert.Equal(t, "sede-central", body["slug"])
	})

	t.Run("unknown slug redirects to the first available center", func(t *testing.T) {
		f := newFixture(t, model.RoleUsuario, []model.Center{sede, norte})
		status, body, location := f.get(t, "/api/v1/center/nope/dashboard", "good")
		assert.Equal(t, 307, status)
		assert.Equal(t, "/api/v1/center/sede-central/dashboard", location)
		assert.Equal(t, location, body["redirect"])
	})

	t.Run("no centers", func(t *testing.T) {
		f := newFixture(t, model.RoleUsuario, nil)
		status, body, _ := f.get(t, "/api/v1/center/sede-central/dashboard", "good")
		assert.Equal(t, 409, status)
		assert.Equal(t, "no centers available", body["error"])
	})
}
