package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Urlsy/app/controllers"
	"github.com/ManuelReschke/Urlsy/internal/pkg/constants"
)

// RedirectRouter owns the root level short code routes. It has to be
// installed after every other router.
type RedirectRouter struct {
}

func (h RedirectRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.QRRoutePrefix+"/:code", controllers.HandleQRCode)
	app.Get("/:code", controllers.HandleRedirect)
}

func NewRedirectRouter() *RedirectRouter {
	return &RedirectRouter{}
}
