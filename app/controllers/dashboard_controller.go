package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/metrics"
	"github.com/ManuelReschke/PennyFox/internal/pkg/usercontext"
)

// HandleDashboard shows the month summary and balances. Loan figures are
// included only when the plan unlocks loans.
func (h *Controller) HandleDashboard(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	month := h.monthQuery(c)

	ctx, cancel := h.callCtx(c)
	defer cancel()

	summary, err := h.deps.Ledger.MonthSummary(ctx, uc.UserID, month)
	if err != nil {
		return respondError(c, err)
	}
	banks, err := h.deps.Accounts.ListBanks(ctx, uc.UserID)
	if err != nil {
		return respondError(c, err)
	}
	total := decimal.Zero
	for _, b := range banks {
		total = total.Add(b.Balance)
	}

	resp := fiber.Map{
		"month":         month,
		"summary":       summary,
		"banks":         banks,
		"total_balance": total,
		"plan":          uc.Plan(),
		"in_trial":      uc.State.InTrial(),
	}

	d := entitlements.Decide(entitlements.FeatureLoans, uc.State.Access())
	metrics.GateDecisions.WithLabelValues(string(d.Feature), string(d.Reason)).Inc()
	if d.Allowed {
		list, err := h.deps.Loans.Fetch(ctx, uc.UserID)
		if err != nil {
			return respondError(c, err)
		}
		open := decimal.Zero
		for _, l := range list {
			open = open.Add(l.RemainingAmount)
		}
		resp["loans"] = list
		resp["loans_remaining"] = open
	}
	return c.JSON(resp)
}
