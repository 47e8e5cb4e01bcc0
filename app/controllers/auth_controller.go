package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/session"
	"github.com/ManuelReschke/PennyFox/internal/pkg/usercontext"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleSignup creates the account, starts the trial and signs the user in.
func (h *Controller) HandleSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := bodyInto(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Repos.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return errorJSON(c, fiber.StatusConflict, "email_taken", "an account with this email already exists")
		}
		return respondError(c, err)
	}

	if _, err := h.deps.Subscriptions.CreateTrialSubscription(ctx, user.ID); err != nil {
		// The account exists; the trial can be started later from /subscription/trial.
		log.Errorf("[Auth] Trial for new user %d failed: %v", user.ID, err)
	}

	if err := session.SetValues(h.deps.Sessions, c, map[string]interface{}{session.KeyUserID: user.ID}); err != nil {
		return respondError(c, err)
	}
	log.Infof("[Auth] User %d signed up", user.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":         user,
		"subscription": h.deps.Subscriptions.State(ctx, user.ID),
	})
}

// HandleLogin checks the credentials and opens a session.
func (h *Controller) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := bodyInto(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := h.callCtx(c)
	defer cancel()

	// Same answer for unknown email and wrong password.
	user, err := h.deps.Repos.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, err)
	}
	if user == nil || !user.CheckPassword(req.Password) {
		return errorJSON(c, fiber.StatusUnauthorized, "invalid_credentials", "email or password is wrong")
	}
	if !user.IsActive() {
		return errorJSON(c, fiber.StatusForbidden, "account_disabled", "this account is disabled")
	}

	if err := session.SetValues(h.deps.Sessions, c, map[string]interface{}{session.KeyUserID: user.ID}); err != nil {
		return respondError(c, err)
	}

	user.TouchLogin(time.Now())
	if err := h.deps.Repos.User.Update(ctx, user); err != nil {
		log.Warnf("[Auth] Could not store last login of user %d: %v", user.ID, err)
	}
	// The plan may have changed while signed out.
	h.deps.Subscriptions.Invalidate(ctx, user.ID)

	return c.JSON(fiber.Map{
		"user":         user,
		"subscription": h.deps.Subscriptions.State(ctx, user.ID),
	})
}

// HandleLogout destroys the session and drops the cached subscription state.
func (h *Controller) HandleLogout(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if err := session.Destroy(h.deps.Sessions, c); err != nil {
		return respondError(c, err)
	}
	if uc.IsLoggedIn {
		ctx, cancel := h.callCtx(c)
		defer cancel()
		h.deps.Subscriptions.Invalidate(ctx, uc.UserID)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSession returns the current application context.
func (h *Controller) HandleSession(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return c.JSON(fiber.Map{"authenticated": false})
	}
	return c.JSON(fiber.Map{
		"authenticated": true,
		"user": fiber.Map{
			"id":    uc.UserID,
			"name":  uc.Name,
			"email": uc.Email,
		},
		"subscription": uc.State,
	})
}
