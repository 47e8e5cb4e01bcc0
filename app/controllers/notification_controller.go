package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/constants"
)

func (h *Controller) HandleListNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > constants.MaxListLimit {
		limit = 50
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	list, err := h.deps.Notifier.List(ctx, userID(c), limit)
	if err != nil {
		return respondError(c, err)
	}
	unread := 0
	for _, n := range list {
		if !n.IsRead {
			unread++
		}
	}
	return c.JSON(fiber.Map{"notifications": list, "unread": unread})
}

func (h *Controller) HandleMarkNotificationRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Notifier.MarkRead(ctx, userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
