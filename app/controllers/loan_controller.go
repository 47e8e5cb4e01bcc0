package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PennyFox/internal/pkg/loans"
)

// HandleListLoans refreshes the user's loans before listing them, so a page
// load is what moves installments forward. Refresh problems are reported in
// the body next to the list.
func (h *Controller) HandleListLoans(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	uid := userID(c)
	report, err := h.deps.Loans.Refresh(ctx, uid)
	if err != nil {
		log.Errorf("[Loans] Refresh on load failed for user %d: %v", uid, err)
		report = &loans.RefreshReport{Failures: []loans.Failure{{Stage: loans.StageCatchUp, Error: err.Error()}}}
	}

	list, err := h.deps.Loans.Fetch(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"loans": list, "refresh": report})
}

// HandleRefreshLoans runs the refresh pass explicitly. ?repair=true runs the
// legacy paid-installment repair first.
func (h *Controller) HandleRefreshLoans(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	uid := userID(c)
	repaired := 0
	if c.QueryBool("repair") {
		n, err := h.deps.Loans.RepairLegacy(ctx, uid)
		if err != nil {
			return respondError(c, err)
		}
		repaired = n
	}
	report, err := h.deps.Loans.Refresh(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"repaired": repaired, "refresh": report})
}

func (h *Controller) HandleGetLoan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	loan, err := h.deps.Loans.Get(ctx, userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(loan)
}

func (h *Controller) HandleCreateLoan(c *fiber.Ctx) error {
	var in loans.Input
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	loan, err := h.deps.Loans.Add(ctx, userID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(loan)
}

func (h *Controller) HandleUpdateLoan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in loans.Input
	if err := bodyInto(c, &in); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	loan, err := h.deps.Loans.Edit(ctx, userID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(loan)
}

func (h *Controller) HandleDeleteLoan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := h.callCtx(c)
	defer cancel()

	if err := h.deps.Loans.Delete(ctx, userID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
