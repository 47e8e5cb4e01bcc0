package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/ledger"
)

func (h *Controller) HandleListGoals(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	goals, err := h.deps.Ledger.ListGoals(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"goals": goals})
}

func (h *Controller) HandleCreateGoal(c *fiber.Ctx) error {
	var in ledger.GoalInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	goal, err := h.deps.Ledger.CreateGoal(ctx, userID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

func (h *Controller) HandleUpdateGoal(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in ledger.GoalInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	goal, err := h.deps.Ledger.UpdateGoal(ctx, userID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(goal)
}

func (h *Controller) HandleDeleteGoal(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Ledger.DeleteGoal(ctx, userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
