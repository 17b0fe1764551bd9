package controllers

import (
	"context"

	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/analytics"
	"github.com/ManuelReschke/Urlsy/internal/pkg/authtoken"
	"github.com/ManuelReschke/Urlsy/internal/pkg/billing"
	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/links"
	"github.com/ManuelReschke/Urlsy/internal/pkg/metrics"
	"github.com/ManuelReschke/Urlsy/internal/pkg/statistics"
)

// Dependencies are the services the HTTP layer is built from
type Dependencies struct {
	Config    *config.Config
	Repos     *repository.Repositories
	Links     *links.Service
	Analytics *analytics.Service
	Billing   *billing.Service
	Webhooks  *billing.EventProcessor
	Tokens    *authtoken.Issuer
	Google    authtoken.IDTokenVerifier
	Stats     *statistics.Service
	Metrics   *metrics.Metrics
	Ping      func(ctx context.Context) error
}

// InitializeControllers builds the global controller instances used by the
// Handle* adapters. It must run before the router is installed.
func InitializeControllers(deps Dependencies) {
	redirectController = NewRedirectController(deps)
	linkController = NewLinkController(deps)
	analyticsController = NewAnalyticsController(deps)
	authController = NewAuthController(deps)
	billingController = NewBillingController(deps)
	mainController = NewMainController(deps)
}

func mustBeInitialized(name string, initialized bool) {
	if !initialized {
		panic(name + " not initialized. Call InitializeControllers first.")
	}
}
