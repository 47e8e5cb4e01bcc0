package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/metrics"
	icuser "github.com/ManuelReschke/PennyFox/internal/pkg/usercontext"
)

// UpgradeURL is where a denied request is pointed to.
const UpgradeURL = "/plans"

// RequireFeature gates a route group on the subscription state carried by the
// request context. Denials answer 403 with the gate reason.
func RequireFeature(feature entitlements.Feature) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := icuser.GetUserContext(c)
		d := entitlements.Decide(feature, uc.State.Access())
		metrics.GateDecisions.WithLabelValues(string(d.Feature), string(d.Reason)).Inc()
		if d.Allowed {
			return c.Next()
		}

		log.Infof("[Gate] User %d denied %s (%s, plan %s)", uc.UserID, feature, d.Reason, uc.Plan())
		status := fiber.StatusForbidden
		if d.Reason == entitlements.ReasonSubscriptionUnavailable {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"error":       "feature_not_available",
			"feature":     d.Feature,
			"reason":      d.Reason,
			"plan":        uc.Plan(),
			"upgrade_url": UpgradeURL,
		})
	}
}
