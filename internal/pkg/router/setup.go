package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/app/controllers"
	"github.com/ManuelReschke/PennyFox/internal/pkg/bootstrap"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers the HTTP routes (metrics, webhooks) first and the
// session-backed API afterwards.
func InstallRouter(app *fiber.App, deps *bootstrap.Container) {
	ctrl := controllers.New(deps)
	setup(app, NewHttpRouter(deps, ctrl), NewApiRouter(deps, ctrl))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
