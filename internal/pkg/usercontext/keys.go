package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyFromProtected = "from_protected"
	KeyCallbackURL   = "callback_url"

	localsKey = "USER_CONTEXT"
)

// Sources of an authenticated request
const (
	SourceSession = "session"
	SourceBearer  = "bearer"
)
