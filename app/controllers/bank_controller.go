package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/accounts"
)

func (h *Controller) HandleListBanks(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	banks, err := h.deps.Accounts.ListBanks(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"banks": banks})
}

func (h *Controller) HandleGetBank(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	bank, err := h.deps.Accounts.GetBank(ctx, userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bank)
}

// HandleCreateBank answers 409 limit_reached when the plan allows no more banks.
func (h *Controller) HandleCreateBank(c *fiber.Ctx) error {
	var in accounts.BankInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	bank, err := h.deps.Accounts.CreateBank(ctx, userID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bank)
}

func (h *Controller) HandleUpdateBank(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in accounts.BankInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	bank, err := h.deps.Accounts.UpdateBank(ctx, userID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bank)
}

func (h *Controller) HandleDeleteBank(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Accounts.DeleteBank(ctx, userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSetPrimaryBank makes the bank the one automatic loan payments draw from.
func (h *Controller) HandleSetPrimaryBank(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Accounts.SetPrimary(ctx, userID(c), id); err != nil {
		return respondError(c, err)
	}
	bank, err := h.deps.Accounts.GetBank(ctx, userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bank)
}
