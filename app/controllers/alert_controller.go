package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/accounts"
)

func (h *Controller) HandleListAlerts(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	alerts, err := h.deps.Accounts.ListAlerts(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"alerts": alerts})
}

func (h *Controller) HandleCreateAlert(c *fiber.Ctx) error {
	var in accounts.AlertInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	alert, err := h.deps.Accounts.CreateAlert(ctx, userID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(alert)
}

func (h *Controller) HandleUpdateAlert(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in accounts.AlertInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	alert, err := h.deps.Accounts.UpdateAlert(ctx, userID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(alert)
}

func (h *Controller) HandleDeleteAlert(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Accounts.DeleteAlert(ctx, userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
