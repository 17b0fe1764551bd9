package oauth

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
)

// ProviderGoogle is the Goth provider name and the provider_accounts.provider value
const ProviderGoogle = "google"

// CallbackURL is the absolute Google redirect URI registered for the app.
func CallbackURL(cfg *config.Config) string {
	return cfg.App.URL("") + "/auth/google/callback"
}

// Setup registers the Google provider and keeps the OAuth state in Redis
// database 2, next to the app sessions in database 1.
// It is safe to call multiple times; providers will just be re-registered.
func Setup(cfg *config.Config) {
	goth.UseProviders(
		google.New(
			cfg.Auth.GoogleClientID,
			cfg.Auth.GoogleClientSecret,
			CallbackURL(cfg),
			"email", "profile",
		),
	)

	port, err := strconv.Atoi(cfg.Cache.Port)
	if err != nil {
		port = 6379
	}

	gothfiber.SessionStore = session.New(session.Config{
		Storage: redisstorage.New(redisstorage.Config{
			Host:     cfg.Cache.Host,
			Port:     port,
			Password: cfg.Cache.Password,
			Database: 2,
			Reset:    false,
		}),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Auth.CookieSecure || !cfg.App.IsDev(),
		Expiration:     time.Hour,
	})
}
