package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/usercontext"
)

type usage struct {
	Used  int64 `json:"used"`
	Limit int   `json:"limit"`
}

// HandleGetAccount returns the profile, preferences, subscription and resource usage.
func (h *Controller) HandleGetAccount(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	ctx, cancel := h.callCtx(c)
	defer cancel()

	user, err := h.deps.Repos.User.GetByID(ctx, uc.UserID)
	if err != nil {
		return respondError(c, err)
	}
	settings, err := h.deps.Repos.UserSettings.GetOrCreate(ctx, uc.UserID)
	if err != nil {
		return respondError(c, err)
	}

	counts := map[entitlements.Resource]func(context.Context, uint) (int64, error){
		entitlements.ResourceBankAccounts: h.deps.Repos.Bank.CountByUser,
		entitlements.ResourceCreditCards:  h.deps.Repos.CreditCard.CountByUser,
		entitlements.ResourceAlerts:       h.deps.Repos.Alert.CountByUser,
	}
	usages := make(map[entitlements.Resource]usage, len(counts))
	for r, count := range counts {
		n, err := count(ctx, uc.UserID)
		if err != nil {
			return respondError(c, err)
		}
		usages[r] = usage{Used: n, Limit: entitlements.Limit(uc.Plan(), r)}
	}

	return c.JSON(fiber.Map{
		"user":         user,
		"settings":     settings,
		"subscription": uc.State,
		"usage":        usages,
	})
}

type updateAccountRequest struct {
	Name               *string `json:"name" validate:"omitempty,min=2,max=150"`
	WhatsAppNumber     *string `json:"whatsapp_number" validate:"omitempty,e164"`
	Currency           *string `json:"currency" validate:"omitempty,iso4217"`
	EmailNotifications *bool   `json:"email_notifications"`
}

// HandleUpdateAccount changes profile fields and preferences. An empty
// whatsapp_number unlinks the number.
func (h *Controller) HandleUpdateAccount(c *fiber.Ctx) error {
	var req updateAccountRequest
	if err := bodyInto(c, &req); err != nil {
		return respondError(c, err)
	}
	unlink := req.WhatsAppNumber != nil && strings.TrimSpace(*req.WhatsAppNumber) == ""
	if unlink {
		req.WhatsAppNumber = nil
	}
	if req.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*req.Currency))
		req.Currency = &cur
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	uid := userID(c)
	ctx, cancel := h.callCtx(c)
	defer cancel()

	user, err := h.deps.Repos.User.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	switch {
	case unlink:
		user.WhatsAppNumber = nil
	case req.WhatsAppNumber != nil:
		n := strings.TrimSpace(*req.WhatsAppNumber)
		user.WhatsAppNumber = &n
	}
	if err := h.deps.Repos.User.Update(ctx, user); err != nil {
		return respondError(c, err)
	}

	settings, err := h.deps.Repos.UserSettings.GetOrCreate(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	if req.Currency != nil || req.EmailNotifications != nil {
		if req.Currency != nil {
			settings.Currency = *req.Currency
		}
		if req.EmailNotifications != nil {
			settings.EmailNotifications = *req.EmailNotifications
		}
		if err := h.deps.Repos.UserSettings.Update(ctx, settings); err != nil {
			return respondError(c, err)
		}
	}
	return c.JSON(fiber.Map{"user": user, "settings": settings})
}
