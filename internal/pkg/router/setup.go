package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Urlsy/internal/pkg/middleware"
)

const defaultAPIRateLimit = 120

type Router interface {
	InstallRouter(app *fiber.App)
}

// Options carries what the routers need beyond the initialized controllers.
type Options struct {
	UserContext middleware.UserContextConfig
	// APIRateLimit is the per-IP request budget per minute on /api
	APIRateLimit int
	// SecureCookies marks the CSRF cookie Secure
	SecureCookies bool
}

func (o Options) apiRateLimit() int {
	if o.APIRateLimit <= 0 {
		return defaultAPIRateLimit
	}
	return o.APIRateLimit
}

func InstallRouter(app *fiber.App, opts Options) {
	// Page and API routes first; the short code catch-alls must stay last.
	setup(app, NewHttpRouter(opts), NewApiRouter(opts), NewRedirectRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
