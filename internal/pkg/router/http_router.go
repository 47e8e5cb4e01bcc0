package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/PennyFox/app/controllers"
	"github.com/ManuelReschke/PennyFox/internal/pkg/bootstrap"
	"github.com/ManuelReschke/PennyFox/internal/pkg/constants"
)

// HttpRouter serves the routes outside the session API.
type HttpRouter struct {
	deps *bootstrap.Container
	ctrl *controllers.Controller
}

func NewHttpRouter(deps *bootstrap.Container, ctrl *controllers.Controller) *HttpRouter {
	return &HttpRouter{deps: deps, ctrl: ctrl}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Prometheus metrics; disabled without METRICS_PASSWORD
	if pw := h.deps.Config.MetricsPassword; pw != "" {
		app.Get(constants.MetricsRoute, basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.deps.Config.MetricsUser: pw,
			},
		}), adaptor.HTTPHandler(promhttp.Handler()))
	} else {
		log.Warn("[Router] METRICS_PASSWORD not set, /metrics is disabled")
	}

	// WhatsApp Cloud API webhook; authenticated by signature, not by session
	hooks := app.Group(constants.WebhooksRoute)
	hooks.Get("/whatsapp", h.ctrl.HandleWhatsAppVerify)
	hooks.Post("/whatsapp", h.ctrl.HandleWhatsAppWebhook)
}
