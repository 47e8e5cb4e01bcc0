package entitlements

// Reason explains a gate decision. It is part of the JSON denial body.
type Reason string

const (
	ReasonAlwaysAllowed           Reason = "always_allowed"
	ReasonPlanAllowed             Reason = "plan_allowed"
	ReasonPlanNotAllowed          Reason = "plan_not_allowed"
	ReasonNoValidSubscription     Reason = "no_valid_subscription"
	ReasonSubscriptionUnavailable Reason = "subscription_unavailable"
)

// Access is the subscription input of a gate decision.
type Access struct {
	Plan                 Plan
	HasValidSubscription bool
	// Loaded is false when the subscription could not be fetched.
	Loaded bool
}

type Decision struct {
	Feature Feature `json:"feature"`
	Allowed bool    `json:"allowed"`
	Reason  Reason  `json:"reason"`
}

// Decide never allows a gated feature unless the subscription was loaded and is valid.
func Decide(f Feature, access Access) Decision {
	d := Decision{Feature: f}
	switch {
	case IsAlwaysAllowed(f):
		d.Allowed, d.Reason = true, ReasonAlwaysAllowed
	case !access.Loaded:
		d.Reason = ReasonSubscriptionUnavailable
	case !access.HasValidSubscription:
		d.Reason = ReasonNoValidSubscription
	case !PlanAllows(f, access.Plan):
		d.Reason = ReasonPlanNotAllowed
	default:
		d.Allowed, d.Reason = true, ReasonPlanAllowed
	}
	return d
}
