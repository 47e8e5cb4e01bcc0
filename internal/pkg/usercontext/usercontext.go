package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/subscription"
)

// UserContext is the per-request application context: who is signed in and
// what their subscription currently allows.
type UserContext struct {
	UserID     uint               `json:"user_id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	IsLoggedIn bool               `json:"is_logged_in"`
	State      subscription.State `json:"subscription"`
}

// Plan returns the effective plan, free for anonymous requests.
func (u UserContext) Plan() entitlements.Plan {
	if u.State.Plan == "" {
		return entitlements.PlanFree
	}
	return u.State.Plan
}

// Set stores uc on c.
func Set(c *fiber.Ctx, uc UserContext) {
	c.Locals(LocalsKey, uc)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(LocalsKey).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}
