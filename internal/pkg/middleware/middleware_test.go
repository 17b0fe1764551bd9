package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/authtoken"
	"github.com/ManuelReschke/Urlsy/internal/pkg/database/testdb"
	"github.com/ManuelReschke/Urlsy/internal/pkg/session"
	"github.com/ManuelReschke/Urlsy/internal/pkg/usercontext"
)

const testSecret = "middleware-test-secret"

func setupApp(t *testing.T) (*fiber.App, *models.User, *authtoken.Issuer) {
	t.Helper()

	db := testdb.New(t)
	user, err := models.NewUser("Ada", "ada@example.com", "")
	require.NoError(t, err)
	user.PlanTier = models.PlanPro
	require.NoError(t, db.Create(user).Error)

	session.SetSessionStore(fibersession.New())
	issuer := authtoken.NewIssuer(testSecret, time.Hour)

	app := fiber.New()
	app.Use(UserContextMiddleware(UserContextConfig{
		Tokens: issuer,
		Users:  repository.NewUserRepository(db),
	}))
	app.Get("/test-login/:id", func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		return session.Login(c, uint(id), "Ada")
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(usercontext.GetUserContext(c))
	})
	app.Get("/api/private", RequireAPIAuth, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/dashboard", RequireAuth, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, user, issuer
}

func TestRequireAPIAuthReturnsJSON401(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"unauthorized"}`, string(body))
}

func TestRequireAuthRedirectsToLogin(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard?tab=links", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?callbackUrl=%2Fdashboard", resp.Header.Get("Location"))
}

func TestBearerTokenAuthenticates(t *testing.T) {
	app, user, issuer := setupApp(t)

	token, err := issuer.Mint(user.ID, user.Email)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"is_logged_in":true`)
	assert.Contains(t, string(body), `"plan":"PRO"`)
	assert.Contains(t, string(body), `"source":"bearer"`)
}

func TestInvalidBearerDoesNotFallBackToSession(t *testing.T) {
	app, user, _ := setupApp(t)

	loginResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test-login/"+itoa(user.ID), nil))
	require.NoError(t, err)
	cookie := loginResp.Header.Get("Set-Cookie")
	require.NotEmpty(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.Header.Set("Cookie", cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	foreign, err := authtoken.NewIssuer("other-secret", time.Hour).Mint(user.ID, user.Email)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.Header.Set("Cookie", cookie)
	req.Header.Set("Authorization", "Bearer "+foreign)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionForDeletedUserIsAnonymous(t *testing.T) {
	app, _, _ := setupApp(t)

	loginResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test-login/9999", nil))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.Header.Set("Cookie", loginResp.Header.Get("Set-Cookie"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
