package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/app/controllers"
	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/analytics"
	"github.com/ManuelReschke/Urlsy/internal/pkg/authtoken"
	"github.com/ManuelReschke/Urlsy/internal/pkg/billing"
	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/constants"
	"github.com/ManuelReschke/Urlsy/internal/pkg/database/testdb"
	"github.com/ManuelReschke/Urlsy/internal/pkg/links"
	"github.com/ManuelReschke/Urlsy/internal/pkg/middleware"
	"github.com/ManuelReschke/Urlsy/internal/pkg/ratelimit"
	"github.com/ManuelReschke/Urlsy/internal/pkg/session"
	"github.com/ManuelReschke/Urlsy/internal/pkg/statistics"
)

const (
	testJWTSecret     = "router-test-secret"
	testWebhookSecret = "whsec_router_test"
	testBaseURL       = "https://urlsy.test"
)

type stubVerifier struct {
	identity *authtoken.GoogleIdentity
	err      error
}

func (s stubVerifier) Verify(ctx context.Context, token string) (*authtoken.GoogleIdentity, error) {
	return s.identity, s.err
}

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	tokens *authtoken.Issuer
	google *stubVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testdb.New(t)
	repos := repository.NewRepositories(db)
	session.SetSessionStore(fibersession.New())

	cfg := &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, PublicURL: testBaseURL, IPHashSalt: "salt"},
		Stripe: config.StripeConfig{
			SecretKey:      "sk_test_router",
			WebhookSecret:  testWebhookSecret,
			PriceMonthlyID: "price_monthly",
			PriceYearlyID:  "price_yearly",
		},
		Auth: config.AuthConfig{
			GoogleClientID:     "client-id.apps.googleusercontent.com",
			GoogleClientSecret: "client-secret",
		},
	}

	tokens := authtoken.NewIssuer(testJWTSecret, time.Hour)
	google := &stubVerifier{}
	billingService := billing.NewServiceFromDB(db, billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret), billing.Prices{
		Monthly: cfg.Stripe.PriceMonthlyID,
		Yearly:  cfg.Stripe.PriceYearlyID,
	}, nil)

	controllers.InitializeControllers(controllers.Dependencies{
		Config:    cfg,
		Repos:     repos,
		Links:     links.NewService(repos, ratelimit.New(db), nil),
		Analytics: analytics.NewService(repos),
		Billing:   billingService,
		Webhooks:  billing.NewEventProcessor(billingService),
		Tokens:    tokens,
		Google:    google,
		Stats:     statistics.NewService(repos, nil),
		Ping:      func(ctx context.Context) error { return nil },
	})

	app := fiber.New(fiber.Config{Views: html.New("../../../views", ".html")})
	app.Get("/test-login/:id", func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		return session.Login(c, uint(id), "tester")
	})
	InstallRouter(app, Options{
		UserContext:  middleware.UserContextConfig{Tokens: tokens, Users: repos.User},
		APIRateLimit: 1000,
	})

	return &testEnv{app: app, db: db, tokens: tokens, google: google}
}

func (e *testEnv) createUser(t *testing.T, email, plan string) *models.User {
	t.Helper()
	user, err := models.NewUser("Test User", email, "")
	require.NoError(t, err)
	user.PlanTier = plan
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) bearer(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.tokens.Mint(user.ID, user.Email)
	require.NoError(t, err)
	return "Bearer " + token
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	return req
}

func cookieHeader(responses ...*http.Response) string {
	var parts []string
	for _, resp := range responses {
		for _, c := range resp.Cookies() {
			parts = append(parts, c.Name+"="+c.Value)
		}
	}
	return strings.Join(parts, "; ")
}

func TestRedirectAndQRCode(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.Link{Code: "abc1234", TargetURL: "https://example.com/target", Source: models.LinkSourceSeed, IsActive: true}).Error)

	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/abc1234", nil))
	assert.Equal(t, fiber.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://example.com/target", resp.Header.Get("Location"))

	var clicks int64
	require.NoError(t, env.db.Model(&models.LinkClick{}).Count(&clicks).Error)
	assert.Equal(t, int64(1), clicks)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/missing1", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Link not found")

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/q/abc1234", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400, s-maxage=86400", resp.Header.Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))

	resp, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/q/missing1", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestExpiredLinkIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, env.db.Create(&models.Link{Code: "old1234", TargetURL: "https://example.com", Source: models.LinkSourceSeed, IsActive: true, ExpiresAt: &past}).Error)

	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/old1234", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGuestShortenSetsCookieAndRateLimits(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, jsonRequest(http.MethodPost, "/api/shorten", `{"url":"https://example.com/long/path","source":"homepage_hero"}`))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)

	var out struct {
		ShortURL string `json:"shortUrl"`
		Code     string `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, testBaseURL+"/"+out.Code, out.ShortURL)

	var guestCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == constants.GuestTokenCookie {
			guestCookie = c
		}
	}
	require.NotNil(t, guestCookie)
	assert.True(t, guestCookie.HttpOnly)
	assert.NotEmpty(t, guestCookie.Value)

	for i := 1; i < links.ShortenGuestLimit; i++ {
		resp, _ = env.do(t, jsonRequest(http.MethodPost, "/api/shorten", `{"url":"https://example.com/`+strconv.Itoa(i)+`","source":"homepage_hero"}`))
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, body = env.do(t, jsonRequest(http.MethodPost, "/api/shorten", `{"url":"https://example.com/over","source":"homepage_hero"}`))
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.JSONEq(t, `{"error":"rate_limited"}`, body)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestShortenValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing source", `{"url":"https://example.com"}`, "invalid_request"},
		{"wrong source", `{"url":"https://example.com","source":"dashboard_create"}`, "invalid_source"},
		{"bad url", `{"url":"ftp://example.com","source":"homepage_hero"}`, "invalid_url"},
		{"not json", `url=https://example.com`, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, jsonRequest(http.MethodPost, "/api/shorten", tt.body))
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, `{"error":"`+tt.code+`"}`, body)
		})
	}
}

func TestDashboardLinksLifecycle(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "free@example.com", models.PlanFree)
	auth := env.bearer(t, user)

	req := jsonRequest(http.MethodPost, "/api/links", `{"url":"https://example.com/docs"}`)
	req.Header.Set("Authorization", auth)
	resp, body := env.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)

	var created struct {
		ID        uint   `json:"id"`
		Code      string `json:"code"`
		TargetURL string `json:"targetUrl"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "https://example.com/docs", created.TargetURL)

	req = jsonRequest(http.MethodPost, "/api/links", `{"url":"https://example.com","alias":"my-alias"}`)
	req.Header.Set("Authorization", auth)
	resp, body = env.do(t, req)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
	assert.JSONEq(t, `{"error":"pro_required"}`, body)

	req = httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.Header.Set("Authorization", auth)
	resp, body = env.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dashboard links.Dashboard
	require.NoError(t, json.Unmarshal([]byte(body), &dashboard))
	assert.Equal(t, int64(1), dashboard.KPIs.TotalLinks)
	require.Len(t, dashboard.Links, 1)
	assert.Equal(t, created.Code, dashboard.Links[0].Code)

	target := "/api/links/" + strconv.FormatUint(uint64(created.ID), 10)
	req = httptest.NewRequest(http.MethodDelete, target, nil)
	req.Header.Set("Authorization", auth)
	resp, _ = env.do(t, req)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodDelete, target, nil)
	req.Header.Set("Authorization", auth)
	resp, body = env.do(t, req)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"not_found"}`, body)
}

func TestProAliasConflict(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "pro@example.com", models.PlanPro)
	auth := env.bearer(t, user)

	for i, want := range []int{fiber.StatusOK, fiber.StatusConflict} {
		req := jsonRequest(http.MethodPost, "/api/links", `{"url":"https://example.com/`+strconv.Itoa(i)+`","alias":"launch-day"}`)
		req.Header.Set("Authorization", auth)
		resp, body := env.do(t, req)
		assert.Equal(t, want, resp.StatusCode, body)
	}
}

func TestProtectedRoutes(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/api/links", "/api/me", "/api/billing/status", "/api/analytics/advanced"} {
		resp, body := env.do(t, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, target)
		assert.JSONEq(t, `{"error":"unauthorized"}`, body)
	}

	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?callbackUrl=%2Fdashboard", resp.Header.Get("Location"))

	resp, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/auth/claim", nil))
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
}

func TestAnalyticsRequiresPro(t *testing.T) {
	env := newTestEnv(t)
	free := env.createUser(t, "free@example.com", models.PlanFree)
	pro := env.createUser(t, "pro@example.com", models.PlanPro)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/advanced", nil)
	req.Header.Set("Authorization", env.bearer(t, free))
	resp, body := env.do(t, req)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
	assert.JSONEq(t, `{"error":"pro_required"}`, body)

	req = httptest.NewRequest(http.MethodGet, "/api/analytics/advanced?window=7", nil)
	req.Header.Set("Authorization", env.bearer(t, pro))
	resp, _ = env.do(t, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "private, max-age=60", resp.Header.Get("Cache-Control"))

	req = httptest.NewRequest(http.MethodGet, "/api/analytics/link/9999", nil)
	req.Header.Set("Authorization", env.bearer(t, pro))
	resp, _ = env.do(t, req)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMeAndMobileAuth(t *testing.T) {
	env := newTestEnv(t)

	env.google.identity = &authtoken.GoogleIdentity{Subject: "google-sub-1", Email: "mobile@example.com", Name: "Mo Bile"}
	resp, body := env.do(t, jsonRequest(http.MethodPost, "/api/auth/mobile", `{"provider":"google","idToken":"id-token"}`))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)

	var token struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"tokenType"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &token))
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, 3600, token.ExpiresIn)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	resp, body = env.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"email":"mobile@example.com"`)
	assert.Contains(t, body, `"planTier":"FREE"`)

	resp, body = env.do(t, jsonRequest(http.MethodPost, "/api/auth/mobile", `{"provider":"apple","idToken":"id-token"}`))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid_request"}`, body)

	env.google.identity = nil
	env.google.err = authtoken.ErrInvalidToken
	resp, body = env.do(t, jsonRequest(http.MethodPost, "/api/auth/mobile", `{"provider":"google","idToken":"forged"}`))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid_token"}`, body)
}

func TestClaimGuestLinksAfterLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "claim@example.com", models.PlanFree)

	shortenResp, body := env.do(t, jsonRequest(http.MethodPost, "/api/shorten", `{"url":"https://example.com/guest","source":"homepage_hero"}`))
	require.Equal(t, fiber.StatusOK, shortenResp.StatusCode, body)

	loginResp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/test-login/"+strconv.FormatUint(uint64(user.ID), 10), nil))

	req := httptest.NewRequest(http.MethodGet, "/auth/claim", nil)
	req.Header.Set("Cookie", cookieHeader(shortenResp, loginResp))
	resp, _ := env.do(t, req)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	var link models.Link
	require.NoError(t, env.db.First(&link).Error)
	require.NotNil(t, link.OwnerID)
	assert.Equal(t, user.ID, *link.OwnerID)
	assert.Empty(t, link.GuestToken)

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Cookie", cookieHeader(loginResp))
	resp, body = env.do(t, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="dashboard"`)
}

func TestClaimContinuesToLoginCallback(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "callback@example.com", models.PlanFree)

	loginPage, body := env.do(t, httptest.NewRequest(http.MethodGet, "/login?callbackUrl=%2Fdashboard%2Fbilling", nil))
	require.Equal(t, fiber.StatusOK, loginPage.StatusCode, body)

	req := httptest.NewRequest(http.MethodGet, "/test-login/"+strconv.FormatUint(uint64(user.ID), 10), nil)
	req.Header.Set("Cookie", cookieHeader(loginPage))
	loginResp, _ := env.do(t, req)

	req = httptest.NewRequest(http.MethodGet, "/auth/claim", nil)
	req.Header.Set("Cookie", cookieHeader(loginResp))
	resp, _ := env.do(t, req)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, constants.BillingRoute, resp.Header.Get("Location"))

	// consumed once
	req = httptest.NewRequest(http.MethodGet, "/auth/claim", nil)
	req.Header.Set("Cookie", cookieHeader(loginResp))
	resp, _ = env.do(t, req)
	assert.Equal(t, constants.DashboardRoute, resp.Header.Get("Location"))
}

func TestLoginIgnoresExternalCallback(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "external@example.com", models.PlanFree)
	loginResp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/test-login/"+strconv.FormatUint(uint64(user.ID), 10), nil))

	req := httptest.NewRequest(http.MethodGet, "/login?callbackUrl=%2F%2Fevil.example", nil)
	req.Header.Set("Cookie", cookieHeader(loginResp))
	resp, _ := env.do(t, req)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, constants.DashboardRoute, resp.Header.Get("Location"))
}

func TestBillingSyncWithoutCustomer(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "sync@example.com", models.PlanFree)

	req := httptest.NewRequest(http.MethodPost, "/api/billing/sync", nil)
	req.Header.Set("Authorization", env.bearer(t, user))
	resp, body := env.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)

	var out struct {
		Plan               string `json:"plan"`
		SubscriptionStatus string `json:"subscriptionStatus"`
		SyncedAt           string `json:"syncedAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, models.PlanFree, out.Plan)
	assert.Equal(t, models.SubscriptionStatusNone, out.SubscriptionStatus)
	assert.NotEmpty(t, out.SyncedAt)

	req = jsonRequest(http.MethodPost, "/api/billing/checkout", `{"interval":"week"}`)
	req.Header.Set("Authorization", env.bearer(t, user))
	resp, body = env.do(t, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid_request"}`, body)

	req = httptest.NewRequest(http.MethodPost, "/api/billing/portal", nil)
	req.Header.Set("Authorization", env.bearer(t, user))
	resp, body = env.do(t, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"no_billing_customer"}`, body)
}

func signedWebhook(t *testing.T, payload, secret string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestStripeWebhook(t *testing.T) {
	env := newTestEnv(t)
	payload := `{"id":"evt_router_1","object":"event","type":"customer.created","api_version":"2020-08-27","data":{"object":{"id":"cus_1","object":"customer"}}}`

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(payload))
	resp, body := env.do(t, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"missing_signature"}`, body)

	resp, body = env.do(t, signedWebhook(t, payload, "whsec_wrong"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `"error":"invalid_signature"`)

	resp, body = env.do(t, signedWebhook(t, payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, body)

	resp, body = env.do(t, signedWebhook(t, payload, testWebhookSecret))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"duplicate":true}`, body)

	var event models.BillingEvent
	require.NoError(t, env.db.First(&event, "id = ?", "evt_router_1").Error)
	assert.Equal(t, models.BillingEventProcessed, event.Status)
}

func TestPublicPagesAndOperations(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.Link{Code: "stat123", TargetURL: "https://example.com", Source: models.LinkSourceSeed, IsActive: true}).Error)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="shorten-form"`)

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/auth/google")

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"totalLinks":1,"totalClicks":0,"totalUsers":0}`, body)

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sitemap: "+testBaseURL+"/sitemap.xml")

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<loc>"+testBaseURL+"/</loc>")
	assert.Contains(t, body, "<changefreq>weekly</changefreq>")
	assert.Contains(t, body, "<loc>"+testBaseURL+"/login</loc>")
	assert.Contains(t, body, "<priority>0.5</priority>")

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/does-not-exist", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"not_found"}`, body)
}
