package apiv1

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/app/controllers"
	"github.com/ManuelReschke/PennyFox/internal/pkg/middleware"
)

// Version is reported by the ping endpoint.
const Version = "v1"

// APIServer implements the ServerInterface
type APIServer struct {
	ctrl    *controllers.Controller
	started time.Time
}

// NewAPIServer creates a new API server instance
func NewAPIServer(ctrl *controllers.Controller) *APIServer {
	return &APIServer{ctrl: ctrl, started: time.Now()}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{
		Ping:    "pong",
		Version: Version,
		Uptime:  int64(time.Since(s.started).Seconds()),
	})
}

// GetAccount returns account information for the signed-in user.
// Authentication is enforced by the route's middleware.
func (s *APIServer) GetAccount(c *fiber.Ctx) error {
	return s.ctrl.HandleGetAccount(c)
}

// PutAccount updates profile fields and preferences.
func (s *APIServer) PutAccount(c *fiber.Ctx) error {
	return s.ctrl.HandleUpdateAccount(c)
}

// RegisterHandlers wires the ServerInterface onto router.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
	router.Get("/account", middleware.RequireAPISessionAuth, si.GetAccount)
	router.Put("/account", middleware.RequireAPISessionAuth, si.PutAccount)
}
