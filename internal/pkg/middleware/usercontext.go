package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/authtoken"
	"github.com/ManuelReschke/Urlsy/internal/pkg/session"
	"github.com/ManuelReschke/Urlsy/internal/pkg/usercontext"
)

// UserContextConfig wires the two ways a request can authenticate.
type UserContextConfig struct {
	Tokens *authtoken.Issuer
	Users  repository.UserRepository
}

// UserContextMiddleware resolves the caller from a bearer token or the web
// session and stores the result with usercontext.Set. A request that carries a
// bearer token is never authenticated through the session, even when the token
// is rejected.
func UserContextMiddleware(cfg UserContextConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Goth keeps its own session store on the OAuth routes.
		if strings.HasPrefix(c.Path(), "/auth/google") {
			return c.Next()
		}

		usercontext.Set(c, resolveUser(c, cfg))
		return c.Next()
	}
}

func resolveUser(c *fiber.Ctx, cfg UserContextConfig) usercontext.UserContext {
	if token := authtoken.BearerToken(c.Get(fiber.HeaderAuthorization)); token != "" {
		if cfg.Tokens == nil {
			return usercontext.UserContext{}
		}
		claims, err := cfg.Tokens.Parse(token)
		if err != nil {
			return usercontext.UserContext{}
		}
		userID, err := claims.UserID()
		if err != nil {
			return usercontext.UserContext{}
		}
		return loadUser(c, cfg.Users, userID, usercontext.SourceBearer)
	}

	userID := session.UserID(c)
	if userID == 0 {
		return usercontext.UserContext{}
	}
	return loadUser(c, cfg.Users, userID, usercontext.SourceSession)
}

// loadUser confirms the account still exists and reads its current plan.
func loadUser(c *fiber.Ctx, users repository.UserRepository, userID uint, source string) usercontext.UserContext {
	if users == nil {
		return usercontext.UserContext{UserID: userID, IsLoggedIn: true, Plan: models.PlanFree, Source: source}
	}

	user, err := users.GetByID(c.UserContext(), userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Uint("user_id", userID).Msg("failed to load user context")
		}
		return usercontext.UserContext{}
	}
	if user.Status == models.STATUS_DISABLED {
		return usercontext.UserContext{}
	}

	return usercontext.UserContext{
		UserID:     user.ID,
		Username:   user.DisplayName(),
		Email:      user.Email,
		IsLoggedIn: true,
		Plan:       user.PlanTier,
		Source:     source,
	}
}
