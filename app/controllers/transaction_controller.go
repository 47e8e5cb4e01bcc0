package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/internal/pkg/constants"
	"github.com/ManuelReschke/PennyFox/internal/pkg/ledger"
)

// monthQuery returns ?month=YYYY-MM or the current month.
func (h *Controller) monthQuery(c *fiber.Ctx) string {
	if m := c.Query("month"); m != "" {
		return m
	}
	return h.deps.Ledger.CurrentMonth()
}

// HandleListTransactions supports ?month, ?bank_id, ?category_id and ?limit.
func (h *Controller) HandleListTransactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", constants.DefaultListLimit)
	if limit <= 0 || limit > constants.MaxListLimit {
		limit = constants.MaxListLimit
	}
	f := ledger.Filter{
		Month:      c.Query("month"),
		BankID:     uint(c.QueryInt("bank_id", 0)),
		CategoryID: uint(c.QueryInt("category_id", 0)),
		Limit:      limit,
	}

	ctx, cancel := h.callCtx(c)
	defer cancel()

	list, err := h.deps.Ledger.List(ctx, userID(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"transactions": list})
}

func (h *Controller) HandleCreateTransaction(c *fiber.Ctx) error {
	var in ledger.TransactionInput
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	in.Source = models.TransactionSourceManual

	ctx, cancel := h.callCtx(c)
	defer cancel()

	t, err := h.deps.Ledger.Record(ctx, userID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// HandleDeleteTransaction reverses the bank balance effect. Loan payments answer 409.
func (h *Controller) HandleDeleteTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Ledger.Remove(ctx, userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
