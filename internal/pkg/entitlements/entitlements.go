package entitlements

import (
	"strings"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// Plans lists every plan from lowest to highest tier.
var Plans = []Plan{PlanFree, PlanBasic, PlanPremium}

// NormalizePlan maps unknown or empty values to PlanFree.
func NormalizePlan(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanBasic):
		return PlanBasic
	case string(PlanPremium):
		return PlanPremium
	default:
		return PlanFree
	}
}

// IsKnownPlan reports whether plan names one of the three tiers exactly.
func IsKnownPlan(plan string) bool {
	switch Plan(strings.ToLower(strings.TrimSpace(plan))) {
	case PlanFree, PlanBasic, PlanPremium:
		return true
	default:
		return false
	}
}

func PlanRank(plan Plan) int {
	switch plan {
	case PlanPremium:
		return 2
	case PlanBasic:
		return 1
	default:
		return 0
	}
}

// Feature identifies a gated destination.
type Feature string

const (
	FeatureDashboard    Feature = "dashboard"
	FeaturePlans        Feature = "plans"
	FeatureTransactions Feature = "transactions"
	FeatureCategories   Feature = "categories"
	FeatureBanks        Feature = "banks"
	FeatureCreditCards  Feature = "credit_cards"
	FeatureLoans        Feature = "loans"
	FeatureAlerts       Feature = "alerts"
	FeatureReports      Feature = "reports"
	FeatureGoals        Feature = "goals"
	FeatureWhatsApp     Feature = "whatsapp"
	FeatureExports      Feature = "exports"
)

var allPlans = []Plan{PlanFree, PlanBasic, PlanPremium}
var paidPlans = []Plan{PlanBasic, PlanPremium}
var premiumOnly = []Plan{PlanPremium}

// alwaysAllowed features stay reachable without any valid subscription so a
// user can always get back to billing and the dashboard.
var alwaysAllowed = map[Feature]bool{
	FeatureDashboard: true,
	FeaturePlans:     true,
}

var allowedPlans = map[Feature][]Plan{
	FeatureTransactions: allPlans,
	FeatureCategories:   allPlans,
	FeatureBanks:        allPlans,
	FeatureCreditCards:  allPlans,
	FeatureLoans:        paidPlans,
	FeatureAlerts:       paidPlans,
	FeatureReports:      paidPlans,
	FeatureGoals:        premiumOnly,
	FeatureWhatsApp:     premiumOnly,
	FeatureExports:      premiumOnly,
}

// IsAlwaysAllowed reports whether f bypasses the subscription check.
func IsAlwaysAllowed(f Feature) bool {
	return alwaysAllowed[f]
}

// AllowedPlans returns the plans that unlock f. Unknown features unlock nothing.
func AllowedPlans(f Feature) []Plan {
	plans := allowedPlans[f]
	if alwaysAllowed[f] {
		plans = allPlans
	}
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanAllows reports membership of plan in AllowedPlans(f).
func PlanAllows(f Feature, plan Plan) bool {
	for _, p := range AllowedPlans(f) {
		if p == plan {
			return true
		}
	}
	return false
}

// Features lists every gated feature in a stable order.
func Features() []Feature {
	return []Feature{
		FeatureDashboard, FeaturePlans, FeatureTransactions, FeatureCategories,
		FeatureBanks, FeatureCreditCards, FeatureLoans, FeatureAlerts,
		FeatureReports, FeatureGoals, FeatureWhatsApp, FeatureExports,
	}
}
