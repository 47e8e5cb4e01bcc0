package entitlements

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePlan(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "free", want: PlanFree},
		{in: "basic", want: PlanBasic},
		{in: " PREMIUM ", want: PlanPremium},
		{in: "premium_max", want: PlanFree},
		{in: "", want: PlanFree},
	}

	for _, tt := range tests {
		if got := NormalizePlan(tt.in); got != tt.want {
			t.Fatalf("NormalizePlan(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlanRank(t *testing.T) {
	if PlanRank(PlanFree) >= PlanRank(PlanBasic) {
		t.Fatalf("expected basic to outrank free")
	}
	if PlanRank(PlanBasic) >= PlanRank(PlanPremium) {
		t.Fatalf("expected premium to outrank basic")
	}
}

// Access is granted iff the plan is in the allow-list, for every plan and feature.
func TestDecideMatchesAllowList(t *testing.T) {
	for _, f := range Features() {
		for _, plan := range Plans {
			d := Decide(f, Access{Plan: plan, HasValidSubscription: true, Loaded: true})
			want := IsAlwaysAllowed(f) || PlanAllows(f, plan)
			assert.Equal(t, want, d.Allowed, "feature=%s plan=%s", f, plan)
		}
	}
}

func TestDecideFailsClosed(t *testing.T) {
	cases := []struct {
		name   string
		access Access
		reason Reason
	}{
		{name: "fetch failed", access: Access{Plan: PlanPremium, HasValidSubscription: true, Loaded: false}, reason: ReasonSubscriptionUnavailable},
		{name: "absent subscription", access: Access{Plan: PlanFree, Loaded: true}, reason: ReasonNoValidSubscription},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, f := range Features() {
				d := Decide(f, tc.access)
				if IsAlwaysAllowed(f) {
					assert.True(t, d.Allowed, "%s must stay reachable", f)
					assert.Equal(t, ReasonAlwaysAllowed, d.Reason)
					continue
				}
				assert.False(t, d.Allowed, "%s must be denied", f)
				assert.Equal(t, tc.reason, d.Reason)
			}
		})
	}
}

func TestDecidePlanNotAllowed(t *testing.T) {
	d := Decide(FeatureGoals, Access{Plan: PlanBasic, HasValidSubscription: true, Loaded: true})
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonPlanNotAllowed, d.Reason)
}

func TestAllowedPlansReturnsCopy(t *testing.T) {
	plans := AllowedPlans(FeatureLoans)
	require.Len(t, plans, 2)
	plans[0] = PlanFree
	assert.False(t, PlanAllows(FeatureLoans, PlanFree))
	assert.Empty(t, AllowedPlans(Feature("unknown")))
}

func TestLimits(t *testing.T) {
	assert.Equal(t, 5, Limit(PlanPremium, ResourceBankAccounts))
	assert.Equal(t, 3, Limit(PlanBasic, ResourceCreditCards))
	assert.Equal(t, 10, Limit(PlanBasic, ResourceAlerts))
	assert.Equal(t, Unlimited, Limit(PlanPremium, ResourceAlerts))
	assert.Equal(t, Limit(PlanFree, ResourceCreditCards), Limit(Plan("gold"), ResourceCreditCards))
}

func TestCheckLimit(t *testing.T) {
	require.NoError(t, CheckLimit(PlanBasic, ResourceCreditCards, 2))

	err := CheckLimit(PlanBasic, ResourceCreditCards, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLimitReached))

	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 3, limitErr.Limit)
	assert.Contains(t, limitErr.UpgradeMessage(), "Upgrade your plan")

	assert.NoError(t, CheckLimit(PlanPremium, ResourceAlerts, 10_000))
}
