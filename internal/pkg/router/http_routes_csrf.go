package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ManuelReschke/Urlsy/app/controllers"
	"github.com/ManuelReschke/Urlsy/internal/pkg/constants"
	"github.com/ManuelReschke/Urlsy/internal/pkg/middleware"
)

// registerCSRFProtectedRoutes installs the server rendered pages. They carry
// the logout form, so each of them issues the CSRF token it posts back.
func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   h.opts.SecureCookies,
	}
	protect := csrf.New(csrfConf)

	app.Get(constants.PublicRoute, h.userContext, protect, controllers.HandleHome)
	app.Get(constants.LoginRoute, h.userContext, protect, controllers.HandleAuthLogin)
	app.Post("/logout", h.userContext, protect, middleware.RequireAuth, controllers.HandleAuthLogout)
	app.Get(constants.DashboardRoute, h.userContext, protect, middleware.RequireAuth, controllers.HandleDashboard)
	app.Get(constants.BillingRoute, h.userContext, protect, middleware.RequireAuth, controllers.HandleDashboard)
}
