package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/session"
	"github.com/ManuelReschke/PennyFox/internal/pkg/subscription"
	"github.com/ManuelReschke/PennyFox/internal/pkg/usercontext"
)

// StateSource yields the derived subscription state of a user.
type StateSource interface {
	State(ctx context.Context, userID uint) subscription.State
}

// UserContextMiddleware builds the request's UserContext from the session,
// the user row and the subscription state.
func UserContextMiddleware(store *fibersession.Store, users repository.UserRepository, states StateSource, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := session.UserID(store, c)
		if userID == 0 {
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Account is gone; drop the stale session.
				_ = session.Destroy(store, c)
			} else {
				log.Errorf("[Auth] Failed to load user %d: %v", userID, err)
			}
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}
		if !user.IsActive() {
			_ = session.Destroy(store, c)
			usercontext.Set(c, usercontext.UserContext{})
			return c.Next()
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID:     user.ID,
			Name:       user.Name,
			Email:      user.Email,
			IsLoggedIn: true,
			State:      states.State(ctx, user.ID),
		})
		return c.Next()
	}
}
