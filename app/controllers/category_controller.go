package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/ledger"
)

func (h *Controller) HandleListCategories(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	list, err := h.deps.Ledger.ListCategories(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"categories": list})
}

// HandleCategoryStats aggregates ?month (default current) per category.
func (h *Controller) HandleCategoryStats(c *fiber.Ctx) error {
	month := h.monthQuery(c)
	ctx, cancel := h.callCtx(c)
	defer cancel()

	stats, err := h.deps.Ledger.CategoryStats(ctx, userID(c), month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"month": month, "stats": stats})
}

func (h *Controller) HandleCreateCategory(c *fiber.Ctx) error {
	var in ledger.CategoryInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	cat, err := h.deps.Ledger.CreateCategory(ctx, userID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *Controller) HandleUpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in ledger.CategoryInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	cat, err := h.deps.Ledger.UpdateCategory(ctx, userID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cat)
}

func (h *Controller) HandleDeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Ledger.DeleteCategory(ctx, userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
