package middleware

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	icuser "github.com/ManuelReschke/Urlsy/internal/pkg/usercontext"
)

// RequireAuth ensures a signed-in user for pages; redirects to the login page
// with a callbackUrl back to the requested page otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !icuser.IsLoggedIn(c) {
		return c.Redirect("/login?callbackUrl="+url.QueryEscape(c.Path()), fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPIAuth ensures a signed-in user for API routes and returns JSON 401 instead of redirect.
func RequireAPIAuth(c *fiber.Ctx) error {
	if !icuser.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}
	return c.Next()
}
