package apiv1

import "github.com/gofiber/fiber/v2"

// Pong defines the ping response.
type Pong struct {
	Ping    string `json:"ping"`
	Version string `json:"version"`
	Uptime  int64  `json:"uptime_seconds"`
}

// ServerInterface lists the public v1 operations.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetAccount(c *fiber.Ctx) error
	PutAccount(c *fiber.Ctx) error
}
