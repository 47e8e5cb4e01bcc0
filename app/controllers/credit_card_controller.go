package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/accounts"
)

func (h *Controller) HandleListCards(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	cards, err := h.deps.Accounts.ListCards(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"credit_cards": cards})
}

func (h *Controller) HandleCreateCard(c *fiber.Ctx) error {
	var in accounts.CardInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	card, err := h.deps.Accounts.CreateCard(ctx, userID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(card)
}

func (h *Controller) HandleUpdateCard(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in accounts.CardInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	card, err := h.deps.Accounts.UpdateCard(ctx, userID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(card)
}

func (h *Controller) HandleDeleteCard(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Accounts.DeleteCard(ctx, userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
