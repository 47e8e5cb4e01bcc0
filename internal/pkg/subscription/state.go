package subscription

import (
	"strings"
	"time"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
)

// State is the derived subscription view of one user.
type State struct {
	UserID               uint              `json:"user_id"`
	SubscriptionID       uint              `json:"subscription_id,omitempty"`
	Plan                 entitlements.Plan `json:"plan"`
	StoredPlan           entitlements.Plan `json:"stored_plan"`
	Status               string            `json:"status,omitempty"`
	TrialEndsAt          *time.Time        `json:"trial_ends_at,omitempty"`
	CurrentPeriodEndsAt  *time.Time        `json:"current_period_ends_at,omitempty"`
	HasValidSubscription bool              `json:"has_valid_subscription"`
	// Loaded is false when the subscription could not be read; Err holds the cause.
	Loaded bool  `json:"loaded"`
	Err    error `json:"-"`
}

// Access converts the state into gate input.
func (s State) Access() entitlements.Access {
	return entitlements.Access{
		Plan:                 s.Plan,
		HasValidSubscription: s.HasValidSubscription,
		Loaded:               s.Loaded,
	}
}

// InTrial reports whether the state is carried by the trial alone.
func (s State) InTrial() bool {
	return s.HasValidSubscription && s.Plan == entitlements.PlanFree
}

// snapshot is the cached form of the authoritative row. Derived fields are
// recomputed on every read so trial expiry is exact.
type snapshot struct {
	UserID         uint       `json:"user_id"`
	SubscriptionID uint       `json:"id"`
	Plan           string     `json:"plan"`
	Status         string     `json:"status"`
	TrialEndsAt    *time.Time `json:"trial_ends_at,omitempty"`
	PeriodEndsAt   *time.Time `json:"period_ends_at,omitempty"`
	None           bool       `json:"none"`
}

func snapshotOf(userID uint, sub *models.Subscription) snapshot {
	if sub == nil {
		return snapshot{UserID: userID, None: true}
	}
	return snapshot{
		UserID:         userID,
		SubscriptionID: sub.ID,
		Plan:           sub.Plan,
		Status:         sub.Status,
		TrialEndsAt:    sub.TrialEndsAt,
		PeriodEndsAt:   sub.CurrentPeriodEndsAt,
	}
}

// derive computes the state at now.
func derive(snap snapshot, now time.Time) State {
	st := State{UserID: snap.UserID, Plan: entitlements.PlanFree, StoredPlan: entitlements.PlanFree, Loaded: true}
	if snap.None {
		return st
	}

	st.SubscriptionID = snap.SubscriptionID
	st.StoredPlan = entitlements.NormalizePlan(snap.Plan)
	st.Status = normalizeStatus(snap.Status)
	st.TrialEndsAt = snap.TrialEndsAt
	st.CurrentPeriodEndsAt = snap.PeriodEndsAt
	st.Plan = effectivePlan(st.StoredPlan, st.Status, snap.PeriodEndsAt, now)

	trialOpen := st.Status != models.SubscriptionStatusExpired && snap.TrialEndsAt != nil && snap.TrialEndsAt.After(now)
	st.HasValidSubscription = st.Plan != entitlements.PlanFree || trialOpen
	return st
}

// effectivePlan: an active row grants its plan, a canceled row keeps it until
// the paid period ends, anything else falls back to free.
func effectivePlan(plan entitlements.Plan, status string, periodEnds *time.Time, now time.Time) entitlements.Plan {
	switch status {
	case models.SubscriptionStatusActive:
		return plan
	case models.SubscriptionStatusCanceled:
		if periodEnds != nil && periodEnds.After(now) {
			return plan
		}
		return entitlements.PlanFree
	default:
		return entitlements.PlanFree
	}
}

func normalizeStatus(status string) string {
	switch s := strings.ToLower(strings.TrimSpace(status)); s {
	case models.SubscriptionStatusActive, models.SubscriptionStatusCanceled, models.SubscriptionStatusExpired:
		return s
	default:
		return models.SubscriptionStatusExpired
	}
}
