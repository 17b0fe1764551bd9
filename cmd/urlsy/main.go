package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/ManuelReschke/Urlsy/app/controllers"
	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/analytics"
	"github.com/ManuelReschke/Urlsy/internal/pkg/authtoken"
	"github.com/ManuelReschke/Urlsy/internal/pkg/billing"
	"github.com/ManuelReschke/Urlsy/internal/pkg/cache"
	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/constants"
	"github.com/ManuelReschke/Urlsy/internal/pkg/database"
	"github.com/ManuelReschke/Urlsy/internal/pkg/env"
	"github.com/ManuelReschke/Urlsy/internal/pkg/links"
	"github.com/ManuelReschke/Urlsy/internal/pkg/logger"
	"github.com/ManuelReschke/Urlsy/internal/pkg/metrics"
	"github.com/ManuelReschke/Urlsy/internal/pkg/middleware"
	"github.com/ManuelReschke/Urlsy/internal/pkg/oauth"
	"github.com/ManuelReschke/Urlsy/internal/pkg/ratelimit"
	"github.com/ManuelReschke/Urlsy/internal/pkg/router"
	"github.com/ManuelReschke/Urlsy/internal/pkg/session"
	"github.com/ManuelReschke/Urlsy/internal/pkg/statistics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init(logger.Options{
		ServiceName: "urlsy",
		Level:       logger.ParseLevel(cfg.Log.Level),
		Format:      cfg.Log.Format,
	})

	app := NewApplication(cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.App.ListenAddr()).Str("env", cfg.App.Env).Msg("starting server")
	if err := app.Listen(cfg.App.ListenAddr()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func NewApplication(cfg *config.Config) *fiber.App {
	database.SetupDatabase(cfg.DB)
	cache.SetupCache(cfg.Cache)

	secureCookies := cfg.Auth.CookieSecure || !cfg.App.IsDev()
	session.NewSessionStore(cfg.Cache, secureCookies)
	oauth.Setup(cfg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	repository.InitializeFactory(database.DB)
	repos := repository.GetGlobalRepositories()
	tokens := authtoken.NewIssuer(cfg.Auth.MobileJWTSecret, cfg.Auth.MobileTokenTTL)

	var provider billing.Provider
	if cfg.Stripe.Configured() {
		provider = billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, billing endpoints are disabled")
	}
	billingService := billing.NewServiceFromDB(database.DB, provider, billing.Prices{
		Monthly: cfg.Stripe.PriceMonthlyID,
		Yearly:  cfg.Stripe.PriceYearlyID,
	}, m)

	controllers.InitializeControllers(controllers.Dependencies{
		Config:    cfg,
		Repos:     repos,
		Links:     links.NewService(repos, ratelimit.New(database.DB), m),
		Analytics: analytics.NewService(repos),
		Billing:   billingService,
		Webhooks:  billing.NewEventProcessor(billingService),
		Tokens:    tokens,
		Google:    authtoken.NewGoogleVerifier(cfg.Auth.GoogleClientID),
		Stats:     statistics.NewService(repos, cache.GetClient()),
		Metrics:   m,
		Ping:      database.Ping,
	})

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/urlsy to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:        html.New(basePath+"views", ".html"),
		BodyLimit:    1 << 20,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		// behind the proxy the client address comes from the forwarded headers
		ProxyHeader: fiber.HeaderXForwardedFor,
	})

	// ignore and cache favicon
	app.Use(favicon.New(favicon.Config{
		File:         basePath + "public/assets/icons/favicon.ico",
		URL:          "/favicon.ico",
		CacheControl: "public, max-age=604800",
	}))

	// recovery, request ids and logging
	app.Use(recover.New(), requestid.New(), fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	// prometheus + fiber monitor
	if cfg.Metrics.Password != "" {
		auth := basicauth.New(basicauth.Config{
			Users: map[string]string{
				cfg.Metrics.User: cfg.Metrics.Password,
			},
		})
		app.Get("/metrics", auth, metrics.Handler(registry))
		app.Get("/monitor", auth, monitor.New(monitor.Config{Title: "Urlsy Monitor"}))
	} else {
		log.Warn().Msg("METRICS_PASSWORD not set, /metrics and /monitor are disabled")
	}

	// static files
	app.Static("/assets", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: constants.DocsRoute,
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, router.Options{
		UserContext: middleware.UserContextConfig{
			Tokens: tokens,
			Users:  repos.User,
		},
		SecureCookies: secureCookies,
	})

	return app
}
