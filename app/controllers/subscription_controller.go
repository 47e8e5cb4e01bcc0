package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
)

type planView struct {
	Plan     entitlements.Plan             `json:"plan"`
	Features []entitlements.Feature       `json:"features"`
	Limits   map[entitlements.Resource]int `json:"limits"`
}

var limitedResources = []entitlements.Resource{
	entitlements.ResourceBankAccounts,
	entitlements.ResourceCreditCards,
	entitlements.ResourceAlerts,
}

// HandlePlans lists every plan with the features it unlocks and its limits (-1 is unlimited).
func (h *Controller) HandlePlans(c *fiber.Ctx) error {
	plans := make([]planView, 0, len(entitlements.Plans))
	for _, p := range entitlements.Plans {
		v := planView{Plan: p, Limits: map[entitlements.Resource]int{}}
		for _, f := range entitlements.Features() {
			if entitlements.PlanAllows(f, p) {
				v.Features = append(v.Features, f)
			}
		}
		for _, r := range limitedResources {
			v.Limits[r] = entitlements.Limit(p, r)
		}
		plans = append(plans, v)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleGetSubscription returns the derived state plus one decision per feature.
func (h *Controller) HandleGetSubscription(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	st := h.deps.Subscriptions.State(ctx, userID(c))
	if !st.Loaded {
		return errorJSON(c, fiber.StatusServiceUnavailable, "subscription_unavailable", "subscription could not be loaded, try again")
	}
	decisions := make([]entitlements.Decision, 0, len(entitlements.Features()))
	for _, f := range entitlements.Features() {
		decisions = append(decisions, entitlements.Decide(f, st.Access()))
	}
	return c.JSON(fiber.Map{
		"subscription": st,
		"in_trial":     st.InTrial(),
		"features":     decisions,
	})
}

type updateSubscriptionRequest struct {
	Plan string `json:"plan" validate:"required"`
}

// HandleUpdateSubscription switches the plan.
func (h *Controller) HandleUpdateSubscription(c *fiber.Ctx) error {
	var req updateSubscriptionRequest
	if err := bodyInto(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, err)
	}

	ctx, cancel := h.callCtx(c)
	defer cancel()

	sub, err := h.deps.Subscriptions.UpdateSubscription(ctx, userID(c), req.Plan)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"subscription": sub,
		"state":        h.deps.Subscriptions.State(ctx, userID(c)),
	})
}

// HandleCancelSubscription cancels the current subscription.
func (h *Controller) HandleCancelSubscription(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	sub, err := h.deps.Subscriptions.CancelSubscription(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"subscription": sub,
		"state":        h.deps.Subscriptions.State(ctx, userID(c)),
	})
}

// HandleStartTrial grants the trial to users who never had a subscription.
func (h *Controller) HandleStartTrial(c *fiber.Ctx) error {
	ctx, cancel := h.callCtx(c)
	defer cancel()

	sub, err := h.deps.Subscriptions.CreateTrialSubscription(ctx, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"subscription": sub})
}
