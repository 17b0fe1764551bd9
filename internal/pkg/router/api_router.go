package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/Urlsy/app/controllers"
	"github.com/ManuelReschke/Urlsy/internal/pkg/middleware"
)

const stripeWebhookRoute = "/api/stripe/webhook"

type ApiRouter struct {
	opts Options
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Stripe retries on its own schedule, so the webhook sits outside the limiter
	// and never consults the session.
	app.Post(stripeWebhookRoute, controllers.HandleStripeWebhook)

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        h.opts.apiRateLimit(),
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited"})
		},
	}), middleware.UserContextMiddleware(h.opts.UserContext))

	api.Get("/stats", controllers.HandleStats)
	api.Post("/shorten", controllers.HandleShorten)

	// Auth
	api.Post("/auth/mobile", controllers.HandleMobileAuth)
	api.Get("/me", middleware.RequireAPIAuth, controllers.HandleMe)

	// Links
	links := api.Group("/links", middleware.RequireAPIAuth)
	links.Get("/", controllers.HandleListLinks)
	links.Post("/", controllers.HandleCreateLink)
	links.Delete("/:id", controllers.HandleDeleteLink)

	// Analytics (PRO)
	analytics := api.Group("/analytics", middleware.RequireAPIAuth)
	analytics.Get("/link/:id", controllers.HandleLinkAnalytics)
	analytics.Get("/advanced", controllers.HandleAdvancedAnalytics)

	// Billing
	billing := api.Group("/billing", middleware.RequireAPIAuth)
	billing.Get("/status", controllers.HandleBillingStatus)
	billing.Post("/checkout", controllers.HandleBillingCheckout)
	billing.Post("/portal", controllers.HandleBillingPortal)
	billing.Post("/sync", controllers.HandleBillingSync)
	billing.Post("/upgrade-yearly", controllers.HandleBillingUpgradeYearly)

	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	})
}

func NewApiRouter(opts Options) *ApiRouter {
	return &ApiRouter{opts: opts}
}
