package entitlements

import (
	"errors"
	"fmt"
)

// Resource is a countable per-user resource with a plan limit.
type Resource string

const (
	ResourceBankAccounts Resource = "bank_accounts"
	ResourceCreditCards  Resource = "credit_cards"
	ResourceAlerts       Resource = "alerts"
)

// Unlimited disables the limit check.
const Unlimited = -1

var ErrLimitReached = errors.New("plan limit reached")

var limits = map[Resource]map[Plan]int{
	ResourceBankAccounts: {PlanFree: 1, PlanBasic: 3, PlanPremium: 5},
	ResourceCreditCards:  {PlanFree: 1, PlanBasic: 3, PlanPremium: 10},
	ResourceAlerts:       {PlanFree: 3, PlanBasic: 10, PlanPremium: Unlimited},
}

// Limit returns the maximum number of r a plan may own. Unknown resources are
// unlimited; unknown plans get the free-tier limit.
func Limit(plan Plan, r Resource) int {
	byPlan, ok := limits[r]
	if !ok {
		return Unlimited
	}
	if v, ok := byPlan[plan]; ok {
		return v
	}
	return byPlan[PlanFree]
}

// LimitError carries the numbers behind an ErrLimitReached.
type LimitError struct {
	Resource Resource
	Plan     Plan
	Limit    int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s limit of %d reached on plan %s", e.Resource, e.Limit, e.Plan)
}

func (e *LimitError) Unwrap() error { return ErrLimitReached }

// UpgradeMessage is the user-facing hint attached to a limit denial.
func (e *LimitError) UpgradeMessage() string {
	if e.Plan == PlanPremium {
		return fmt.Sprintf("You reached the maximum of %d %s.", e.Limit, humanResource(e.Resource))
	}
	return fmt.Sprintf("Your %s plan allows %d %s. Upgrade your plan to raise this limit.", e.Plan, e.Limit, humanResource(e.Resource))
}

// CheckLimit allows creating one more r when count is below the limit.
func CheckLimit(plan Plan, r Resource, count int64) error {
	limit := Limit(plan, r)
	if limit == Unlimited || count < int64(limit) {
		return nil
	}
	return &LimitError{Resource: r, Plan: plan, Limit: limit}
}

func humanResource(r Resource) string {
	switch r {
	case ResourceBankAccounts:
		return "bank accounts"
	case ResourceCreditCards:
		return "credit cards"
	case ResourceAlerts:
		return "alerts"
	default:
		return string(r)
	}
}
