package controllers

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/constants"
	"github.com/ManuelReschke/Urlsy/internal/pkg/statistics"
	"github.com/ManuelReschke/Urlsy/internal/pkg/usercontext"
)

const healthTimeout = 2 * time.Second

// MainController renders the public pages and serves the crawler and health endpoints
type MainController struct {
	cfg   *config.Config
	stats *statistics.Service
	ping  func(ctx context.Context) error
}

func NewMainController(deps Dependencies) *MainController {
	return &MainController{
		cfg:   deps.Config,
		stats: deps.Stats,
		ping:  deps.Ping,
	}
}

var mainController *MainController

func GetMainController() *MainController {
	mustBeInitialized("MainController", mainController != nil)
	return mainController
}

// HandleHome - Adapter for the landing page
func HandleHome(c *fiber.Ctx) error {
	return GetMainController().HandleHome(c)
}

// HandleDashboard - Adapter for the dashboard page
func HandleDashboard(c *fiber.Ctx) error {
	return GetMainController().HandleDashboard(c)
}

// HandleStats - Adapter for the public totals
func HandleStats(c *fiber.Ctx) error {
	return GetMainController().HandleStats(c)
}

// HandleHealth - Adapter for the liveness probe
func HandleHealth(c *fiber.Ctx) error {
	return GetMainController().HandleHealth(c)
}

// HandleRobots - Adapter for robots.txt
func HandleRobots(c *fiber.Ctx) error {
	return GetMainController().HandleRobots(c)
}

// HandleSitemap - Adapter for sitemap.xml
func HandleSitemap(c *fiber.Ctx) error {
	return GetMainController().HandleSitemap(c)
}

func (mc *MainController) HandleHome(c *fiber.Ctx) error {
	return c.Render("home", fiber.Map{
		"Title": "Short links with click analytics",
		"User":  usercontext.GetUserContext(c),
		"Flash": flash.Get(c),
		"CSRF":  c.Locals("csrf"),
	}, "layouts/main")
}

// HandleDashboard renders the dashboard shell. Links, KPIs and billing state
// are loaded by the page from the JSON API.
func (mc *MainController) HandleDashboard(c *fiber.Ctx) error {
	return c.Render("dashboard", fiber.Map{
		"Title":            "Dashboard",
		"User":             usercontext.GetUserContext(c),
		"Flash":            flash.Get(c),
		"CSRF":             c.Locals("csrf"),
		"BillingEnabled":   mc.cfg.Stripe.Configured(),
		"BillingView":      c.Path() == constants.BillingRoute,
		"CheckoutSession":  c.Query("session_id"),
		"CheckoutCanceled": c.Query("status") == "cancel",
	}, "layouts/main")
}

func (mc *MainController) HandleStats(c *fiber.Ctx) error {
	totals, err := mc.stats.Get(c.UserContext())
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("statistics query failed")
		return apiError(c, fiber.StatusInternalServerError, "server_error")
	}
	return c.JSON(totals)
}

func (mc *MainController) HandleHealth(c *fiber.Ctx) error {
	if mc.ping != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := mc.ping(ctx); err != nil {
			log.Warn().Err(err).Msg("health check: database unreachable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (mc *MainController) HandleRobots(c *fiber.Ctx) error {
	base := appURL(c, mc.cfg)

	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("Disallow: " + constants.DashboardRoute + "\n")
	b.WriteString("Sitemap: " + base + "/sitemap.xml\n")

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(b.String())
}

type sitemapURL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod"`
	ChangeFreq string  `xml:"changefreq"`
	Priority   float64 `xml:"priority"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func (mc *MainController) HandleSitemap(c *fiber.Ctx) error {
	base := appURL(c, mc.cfg)
	now := time.Now().UTC().Format(time.RFC3339)

	set := sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: base + "/", LastMod: now, ChangeFreq: "weekly", Priority: 1.0},
			{Loc: base + constants.LoginRoute, LastMod: now, ChangeFreq: "monthly", Priority: 0.5},
		},
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.Send(append([]byte(xml.Header), out...))
}

// renderNotFound renders the branded 404 page for unknown or expired codes
func renderNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("not_found", fiber.Map{
		"Title": "Link not found",
		"User":  usercontext.GetUserContext(c),
	}, "layouts/main")
}
