package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Urlsy/internal/pkg/middleware"
)

type HttpRouter struct {
	opts        Options
	userContext fiber.Handler
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter(opts Options) *HttpRouter {
	return &HttpRouter{
		opts:        opts,
		userContext: middleware.UserContextMiddleware(opts.UserContext),
	}
}
