package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/links"
	"github.com/ManuelReschke/Urlsy/internal/pkg/logger"
	"github.com/ManuelReschke/Urlsy/internal/pkg/metrics"
	"github.com/ManuelReschke/Urlsy/internal/pkg/qrcode"
	"github.com/ManuelReschke/Urlsy/internal/pkg/visitor"
)

const qrCacheControl = "public, max-age=86400, s-maxage=86400"

// RedirectController serves the public short link and QR code routes
type RedirectController struct {
	cfg     *config.Config
	links   *links.Service
	metrics *metrics.Metrics
}

func NewRedirectController(deps Dependencies) *RedirectController {
	return &RedirectController{
		cfg:     deps.Config,
		links:   deps.Links,
		metrics: deps.Metrics,
	}
}

var redirectController *RedirectController

func GetRedirectController() *RedirectController {
	mustBeInitialized("RedirectController", redirectController != nil)
	return redirectController
}

// HandleRedirect - Adapter for short link redirects
func HandleRedirect(c *fiber.Ctx) error {
	return GetRedirectController().HandleRedirect(c)
}

// HandleQRCode - Adapter for short link QR codes
func HandleQRCode(c *fiber.Ctx) error {
	return GetRedirectController().HandleQRCode(c)
}

// HandleRedirect sends the visitor to the link target with a 307. Click
// tracking failures are logged and never block the redirect.
func (rc *RedirectController) HandleRedirect(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	reqID := requestID(c)

	link, err := rc.links.Resolve(c.UserContext(), code)
	if errors.Is(err, links.ErrNotFound) {
		rc.metrics.Redirect("miss")
		logger.Event("redirect_miss").Str("request_id", reqID).Str("code", code).Msg("short link not found")
		return renderNotFound(c)
	}
	if err != nil {
		rc.metrics.Redirect("error")
		logger.ErrorEvent("redirect_server_error", err).Str("request_id", reqID).Str("code", code).Msg("redirect lookup failed")
		return c.Status(fiber.StatusInternalServerError).SendString("Server error")
	}

	visit := visitor.FromRequest(c, rc.cfg.App.IPHashSalt)
	if _, err := rc.links.TrackClick(c.UserContext(), link, visit); err != nil {
		logger.ErrorEvent("redirect_click_log_failed", err).Str("request_id", reqID).Str("code", link.Code).Msg("click not recorded")
	}

	rc.metrics.Redirect("hit")
	logger.Event("redirect_hit").Str("request_id", reqID).Str("code", link.Code).Msg("redirect")
	return c.Redirect(link.TargetURL, fiber.StatusTemporaryRedirect)
}

// HandleQRCode renders a PNG QR code of the public short URL
func (rc *RedirectController) HandleQRCode(c *fiber.Ctx) error {
	link, err := rc.links.Resolve(c.UserContext(), strings.TrimSpace(c.Params("code")))
	if errors.Is(err, links.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).SendString("Not found")
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Server error")
	}

	png, err := qrcode.PNG(shortURLFunc(c, rc.cfg)(link.Code))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Server error")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, qrCacheControl)
	return c.Send(png)
}
