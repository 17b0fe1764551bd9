package constants

// Static route constants
const (
	PublicRoute    = "/"
	LoginRoute     = "/login"
	DashboardRoute = "/dashboard"
	BillingRoute   = "/dashboard/billing"
	ClaimRoute     = "/auth/claim"
	QRRoutePrefix  = "/q"
	DocsRoute      = "/docs/api/"
)

// GuestTokenCookie remembers links created before signing in
const GuestTokenCookie = "lm_guest_token"
