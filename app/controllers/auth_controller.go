package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/authtoken"
	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/constants"
	"github.com/ManuelReschke/Urlsy/internal/pkg/oauth"
	"github.com/ManuelReschke/Urlsy/internal/pkg/session"
	"github.com/ManuelReschke/Urlsy/internal/pkg/usercontext"
)

// AuthController handles web login, mobile token exchange and the account endpoint
type AuthController struct {
	cfg    *config.Config
	users  repository.UserRepository
	tokens *authtoken.Issuer
	google authtoken.IDTokenVerifier
}

func NewAuthController(deps Dependencies) *AuthController {
	return &AuthController{
		cfg:    deps.Config,
		users:  deps.Repos.User,
		tokens: deps.Tokens,
		google: deps.Google,
	}
}

var authController *AuthController

func GetAuthController() *AuthController {
	mustBeInitialized("AuthController", authController != nil)
	return authController
}

// HandleAuthLogin - Adapter for the login page
func HandleAuthLogin(c *fiber.Ctx) error {
	return GetAuthController().HandleLogin(c)
}

// HandleAuthLogout - Adapter for logout
func HandleAuthLogout(c *fiber.Ctx) error {
	return GetAuthController().HandleLogout(c)
}

// HandleOAuthCallback - Adapter for the Google OAuth callback
func HandleOAuthCallback(c *fiber.Ctx) error {
	return GetAuthController().HandleOAuthCallback(c)
}

// HandleMe - Adapter for the current account endpoint
func HandleMe(c *fiber.Ctx) error {
	return GetAuthController().HandleMe(c)
}

// HandleMobileAuth - Adapter for the mobile token exchange
func HandleMobileAuth(c *fiber.Ctx) error {
	return GetAuthController().HandleMobileAuth(c)
}

// HandleLogin renders the Google sign-in page; signed-in users go straight to
// the callback page or the dashboard.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	callbackURL := localPath(c.Query("callbackUrl"))
	if usercontext.IsLoggedIn(c) {
		return c.Redirect(firstNonEmpty(callbackURL, constants.DashboardRoute), fiber.StatusSeeOther)
	}

	// the claim step after the OAuth round trip picks this up again
	if callbackURL != "" {
		_ = session.SetSessionValue(c, usercontext.KeyCallbackURL, callbackURL)
	}

	return c.Render("login", fiber.Map{
		"Title":            "Sign in",
		"User":             usercontext.GetUserContext(c),
		"Flash":            flash.Get(c),
		"CallbackURL":      callbackURL,
		"GoogleConfigured": ac.cfg.Auth.GoogleClientID != "" && ac.cfg.Auth.GoogleClientSecret != "",
	}, "layouts/main")
}

// HandleOAuthCallback completes the Google flow, upserts the user by email,
// starts the app session and continues to the guest link claim.
func (ac *AuthController) HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return loginError(c, "Google sign-in failed. Please try again.")
	}
	if strings.TrimSpace(u.Email) == "" {
		return loginError(c, "Your Google account did not share an email address.")
	}

	user, err := ac.users.FindOrCreateByIdentity(c.UserContext(), repository.Identity{
		Provider:       oauth.ProviderGoogle,
		ProviderUserID: u.UserID,
		Email:          u.Email,
		Name:           firstNonEmpty(u.Name, u.NickName),
		AvatarURL:      u.AvatarURL,
	})
	if err != nil {
		return loginError(c, "We could not sign you in. Please try again.")
	}

	if err := session.Login(c, user.ID, user.DisplayName()); err != nil {
		return loginError(c, "We could not start your session. Please try again.")
	}
	_ = ac.users.TouchLastLogin(c.UserContext(), user.ID, time.Now().UTC())

	return c.Redirect(constants.ClaimRoute, fiber.StatusSeeOther)
}

// HandleLogout ends the web session
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := session.Logout(c); err != nil {
		return loginError(c, "Logged out.")
	}

	return flash.WithSuccess(c, fiber.Map{
		"type":    "success",
		"message": "You are signed out.",
	}).Redirect(constants.LoginRoute, fiber.StatusSeeOther)
}

// HandleMe returns the signed-in account for bearer token or session callers
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	user, err := ac.users.GetByID(c.UserContext(), usercontext.GetUserID(c))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"planTier": user.PlanTier,
		},
	})
}

type mobileAuthRequest struct {
	Provider string `json:"provider" validate:"required,eq=google"`
	IDToken  string `json:"idToken" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// HandleMobileAuth exchanges a Google ID token for a short lived bearer token
func (ac *AuthController) HandleMobileAuth(c *fiber.Ctx) error {
	var req mobileAuthRequest
	if err := parseJSON(c, &req, false); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_request")
	}
	if ac.google == nil || ac.cfg.Auth.GoogleClientID == "" || !ac.tokens.Configured() {
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	}

	identity, err := ac.google.Verify(c.UserContext(), req.IDToken)
	if errors.Is(err, authtoken.ErrInvalidToken) {
		return apiError(c, fiber.StatusUnauthorized, "invalid_token")
	}
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	}

	user, err := ac.users.FindOrCreateByIdentity(c.UserContext(), repository.Identity{
		Provider:       oauth.ProviderGoogle,
		ProviderUserID: identity.Subject,
		Email:          identity.Email,
		Name:           identity.Name,
		AvatarURL:      identity.AvatarURL,
	})
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	}

	token, err := ac.tokens.Mint(user.ID, user.Email)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	}

	return c.JSON(fiber.Map{
		"accessToken": token,
		"tokenType":   "Bearer",
		"expiresIn":   ac.tokens.TTL(),
	})
}

func loginError(c *fiber.Ctx, message string) error {
	return flash.WithError(c, fiber.Map{
		"type":    "error",
		"message": message,
	}).Redirect(constants.LoginRoute, fiber.StatusSeeOther)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
