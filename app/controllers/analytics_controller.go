package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ManuelReschke/Urlsy/internal/pkg/analytics"
	"github.com/ManuelReschke/Urlsy/internal/pkg/usercontext"
)

const analyticsCacheControl = "private, max-age=60"

// AnalyticsController serves the PRO click analytics
type AnalyticsController struct {
	analytics *analytics.Service
}

func NewAnalyticsController(deps Dependencies) *AnalyticsController {
	return &AnalyticsController{analytics: deps.Analytics}
}

var analyticsController *AnalyticsController

func GetAnalyticsController() *AnalyticsController {
	mustBeInitialized("AnalyticsController", analyticsController != nil)
	return analyticsController
}

// HandleLinkAnalytics - Adapter for per-link analytics
func HandleLinkAnalytics(c *fiber.Ctx) error {
	return GetAnalyticsController().HandleLink(c)
}

// HandleAdvancedAnalytics - Adapter for account-wide analytics
func HandleAdvancedAnalytics(c *fiber.Ctx) error {
	return GetAnalyticsController().HandleAdvanced(c)
}

// HandleLink returns the analytics of one owned link. ?window=7|30|90|all
func (ac *AnalyticsController) HandleLink(c *fiber.Ctx) error {
	res, err := ac.analytics.ForLink(
		c.UserContext(),
		usercontext.GetUserID(c),
		paramID(c, "id"),
		analytics.ParseWindow(c.Query("window")),
	)
	return ac.respond(c, res, err)
}

// HandleAdvanced returns the analytics across all of the caller's links
func (ac *AnalyticsController) HandleAdvanced(c *fiber.Ctx) error {
	res, err := ac.analytics.ForOwner(
		c.UserContext(),
		usercontext.GetUserID(c),
		analytics.ParseWindow(c.Query("window")),
	)
	return ac.respond(c, res, err)
}

func (ac *AnalyticsController) respond(c *fiber.Ctx, res *analytics.Response, err error) error {
	switch {
	case errors.Is(err, analytics.ErrProRequired):
		return apiError(c, fiber.StatusPaymentRequired, "pro_required")
	case errors.Is(err, analytics.ErrLinkNotFound):
		return apiError(c, fiber.StatusNotFound, "not_found")
	case err != nil:
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("analytics query failed")
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	}

	c.Set(fiber.HeaderCacheControl, analyticsCacheControl)
	return c.JSON(res)
}
