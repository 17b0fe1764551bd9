package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/constants"
	"github.com/ManuelReschke/Urlsy/internal/pkg/links"
	"github.com/ManuelReschke/Urlsy/internal/pkg/logger"
	"github.com/ManuelReschke/Urlsy/internal/pkg/session"
	"github.com/ManuelReschke/Urlsy/internal/pkg/usercontext"
	"github.com/ManuelReschke/Urlsy/internal/pkg/visitor"
)

const guestTokenMaxAge = 30 * 24 * 60 * 60

// LinkController handles link creation, listing and ownership transfer
type LinkController struct {
	cfg   *config.Config
	links *links.Service
}

func NewLinkController(deps Dependencies) *LinkController {
	return &LinkController{
		cfg:   deps.Config,
		links: deps.Links,
	}
}

var linkController *LinkController

func GetLinkController() *LinkController {
	mustBeInitialized("LinkController", linkController != nil)
	return linkController
}

// HandleShorten - Adapter for the homepage shorten API
func HandleShorten(c *fiber.Ctx) error {
	return GetLinkController().HandleShorten(c)
}

// HandleListLinks - Adapter for the dashboard link list
func HandleListLinks(c *fiber.Ctx) error {
	return GetLinkController().HandleList(c)
}

// HandleCreateLink - Adapter for dashboard link creation
func HandleCreateLink(c *fiber.Ctx) error {
	return GetLinkController().HandleCreate(c)
}

// HandleDeleteLink - Adapter for link deletion
func HandleDeleteLink(c *fiber.Ctx) error {
	return GetLinkController().HandleDelete(c)
}

// HandleClaimGuestLinks - Adapter for the post-login claim redirect
func HandleClaimGuestLinks(c *fiber.Ctx) error {
	return GetLinkController().HandleClaim(c)
}

type shortenRequest struct {
	URL    *string `json:"url" validate:"required"`
	Source *string `json:"source" validate:"required"`
}

type createLinkRequest struct {
	URL       *string    `json:"url" validate:"required"`
	Alias     string     `json:"alias"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// HandleShorten creates a link from the homepage form. Guests are identified
// by the lm_guest_token cookie so their links can be claimed after login.
func (lc *LinkController) HandleShorten(c *fiber.Ctx) error {
	var req shortenRequest
	if err := parseJSON(c, &req, false); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	userCtx := usercontext.GetUserContext(c)
	caller := links.Caller{
		UserID: userCtx.UserID,
		IPHash: visitor.FromRequest(c, lc.cfg.App.IPHashSalt).IPHash,
	}
	if caller.UserID == 0 {
		caller.GuestToken = c.Cookies(constants.GuestTokenCookie)
		if caller.GuestToken == "" {
			caller.GuestToken = uuid.NewString()
		}
	}

	link, err := lc.links.Shorten(c.UserContext(), links.ShortenInput{
		URL:    *req.URL,
		Source: *req.Source,
		Caller: caller,
	})
	if err != nil {
		return lc.linkError(c, err, "shorten_server_error")
	}

	if caller.UserID == 0 {
		c.Cookie(&fiber.Cookie{
			Name:     constants.GuestTokenCookie,
			Value:    caller.GuestToken,
			Path:     "/",
			MaxAge:   guestTokenMaxAge,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   !lc.cfg.App.IsDev(),
		})
	}

	return c.JSON(fiber.Map{
		"shortUrl": shortURLFunc(c, lc.cfg)(link.Code),
		"code":     link.Code,
	})
}

// HandleList returns the dashboard KPIs and the caller's links
func (lc *LinkController) HandleList(c *fiber.Ctx) error {
	dashboard, err := lc.links.Dashboard(c.UserContext(), usercontext.GetUserID(c), shortURLFunc(c, lc.cfg))
	if err != nil {
		return lc.linkError(c, err, "dashboard_links_failed")
	}
	return c.JSON(dashboard)
}

// HandleCreate creates a link from the dashboard form
func (lc *LinkController) HandleCreate(c *fiber.Ctx) error {
	var req createLinkRequest
	if err := parseJSON(c, &req, false); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	link, err := lc.links.Create(c.UserContext(), usercontext.GetUserID(c), links.CreateInput{
		URL:       *req.URL,
		Alias:     req.Alias,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return lc.linkError(c, err, "dashboard_create_link_error")
	}

	return c.JSON(fiber.Map{
		"id":        link.ID,
		"code":      link.Code,
		"targetUrl": link.TargetURL,
		"shortUrl":  shortURLFunc(c, lc.cfg)(link.Code),
	})
}

// HandleDelete removes one of the caller's links
func (lc *LinkController) HandleDelete(c *fiber.Ctx) error {
	id := paramID(c, "id")
	if id == 0 {
		return apiError(c, fiber.StatusNotFound, "not_found")
	}

	if err := lc.links.Delete(c.UserContext(), usercontext.GetUserID(c), id); err != nil {
		return lc.linkError(c, err, "delete_link_failed")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleClaim moves the guest cookie's links to the signed-in user, clears
// the cookie and continues to the page remembered at login, else the dashboard.
func (lc *LinkController) HandleClaim(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	next := constants.DashboardRoute
	if cb := localPath(session.GetSessionValue(c, usercontext.KeyCallbackURL)); cb != "" {
		next = cb
		_ = session.SetSessionValue(c, usercontext.KeyCallbackURL, "")
	}
	claimed, err := lc.links.ClaimGuestLinks(c.UserContext(), userID, c.Cookies(constants.GuestTokenCookie))

	c.Cookie(&fiber.Cookie{
		Name:    constants.GuestTokenCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
	})

	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("claiming guest links failed")
		return flash.WithError(c, fiber.Map{
			"type":    "error",
			"message": "We could not move your earlier links to your account.",
		}).Redirect(next, fiber.StatusSeeOther)
	}
	if claimed > 0 {
		return flash.WithSuccess(c, fiber.Map{
			"type":    "success",
			"message": fmt.Sprintf("%s moved to your account.", pluralLinks(claimed)),
		}).Redirect(next, fiber.StatusSeeOther)
	}
	return c.Redirect(next, fiber.StatusSeeOther)
}

func (lc *LinkController) linkError(c *fiber.Ctx, err error, event string) error {
	var rateLimited *links.RateLimitError
	switch {
	case errors.As(err, &rateLimited):
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(rateLimited.RetryAfter))
		return apiError(c, fiber.StatusTooManyRequests, "rate_limited")
	case errors.Is(err, links.ErrInvalidSource):
		return apiError(c, fiber.StatusBadRequest, "invalid_source")
	case errors.Is(err, links.ErrInvalidURL):
		return apiError(c, fiber.StatusBadRequest, "invalid_url")
	case errors.Is(err, links.ErrInvalidAlias):
		return apiError(c, fiber.StatusBadRequest, "invalid_alias")
	case errors.Is(err, links.ErrInvalidExpiry):
		return apiError(c, fiber.StatusBadRequest, "invalid_expiry")
	case errors.Is(err, links.ErrProRequired):
		return apiError(c, fiber.StatusPaymentRequired, "pro_required")
	case errors.Is(err, links.ErrFreeLimitReached):
		return apiError(c, fiber.StatusForbidden, "free_limit_reached")
	case errors.Is(err, links.ErrAliasTaken):
		return apiError(c, fiber.StatusConflict, "alias_taken")
	case errors.Is(err, links.ErrNotFound):
		return apiError(c, fiber.StatusNotFound, "not_found")
	case errors.Is(err, links.ErrUserNotFound):
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	case errors.Is(err, links.ErrCodeGenerationExhausted):
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	default:
		logger.ErrorEvent(event, err).Str("request_id", requestID(c)).Msg("link request failed")
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	}
}

func pluralLinks(n int64) string {
	if n == 1 {
		return "1 link"
	}
	return strconv.FormatInt(n, 10) + " links"
}
