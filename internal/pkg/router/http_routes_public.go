package router

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/Urlsy/app/controllers"
	"github.com/ManuelReschke/Urlsy/internal/pkg/constants"
	"github.com/ManuelReschke/Urlsy/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Crawlers + probes
	app.Get("/healthz", controllers.HandleHealth)
	app.Get("/robots.txt", controllers.HandleRobots)
	app.Get("/sitemap.xml", controllers.HandleSitemap)

	// Guest link claim after sign-in; registered before the provider routes
	app.Get(constants.ClaimRoute, h.userContext, middleware.RequireAuth, controllers.HandleClaimGuestLinks)

	// Google OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
}
