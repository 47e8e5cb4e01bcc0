package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/constants"
	icuser "github.com/ManuelReschke/PennyFox/internal/pkg/usercontext"
)

// LoginURL is where an anonymous API client is pointed to.
const LoginURL = constants.APIRoute + "/auth/login"

// RequireAPISessionAuth answers 401 unless UserContextMiddleware resolved an
// active user for this request.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	uc := icuser.GetUserContext(c)
	if uc.IsLoggedIn && uc.UserID != 0 {
		return c.Next()
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":     "unauthorized",
		"message":   "sign in required",
		"login_url": LoginURL,
	})
}
