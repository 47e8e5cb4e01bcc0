package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/PennyFox/app/controllers"
	apiv1 "github.com/ManuelReschke/PennyFox/internal/api/v1"
	"github.com/ManuelReschke/PennyFox/internal/pkg/bootstrap"
	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/env"
	"github.com/ManuelReschke/PennyFox/internal/pkg/middleware"
)

type ApiRouter struct {
	deps *bootstrap.Container
	ctrl *controllers.Controller
}

func NewApiRouter(deps *bootstrap.Container, ctrl *controllers.Controller) *ApiRouter {
	return &ApiRouter{deps: deps, ctrl: ctrl}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT", 120),
		Expiration: time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1", middleware.UserContextMiddleware(h.deps.Sessions, h.deps.Repos.User, h.deps.Subscriptions, h.deps.Config.RemoteCallTimeout))
	apiv1.RegisterHandlers(v1, apiv1.NewAPIServer(h.ctrl))

	c := h.ctrl
	auth := v1.Group("/auth")
	auth.Post("/signup", c.HandleSignup)
	auth.Post("/login", c.HandleLogin)
	auth.Post("/logout", c.HandleLogout)
	auth.Get("/session", c.HandleSession)

	// Private routes carry the session check per prefix; unknown paths fall through to 404.
	authed := middleware.RequireAPISessionAuth
	gate := middleware.RequireFeature
	group := func(prefix string, feature entitlements.Feature) fiber.Router {
		return v1.Group(prefix, authed, gate(feature))
	}

	v1.Get("/dashboard", authed, gate(entitlements.FeatureDashboard), c.HandleDashboard)

	v1.Get("/plans", authed, gate(entitlements.FeaturePlans), c.HandlePlans)
	sub := group("/subscription", entitlements.FeaturePlans)
	sub.Get("/", c.HandleGetSubscription)
	sub.Post("/", c.HandleUpdateSubscription)
	sub.Delete("/", c.HandleCancelSubscription)
	sub.Post("/trial", c.HandleStartTrial)

	banks := group("/banks", entitlements.FeatureBanks)
	banks.Get("/", c.HandleListBanks)
	banks.Post("/", c.HandleCreateBank)
	banks.Get("/:id", c.HandleGetBank)
	banks.Put("/:id", c.HandleUpdateBank)
	banks.Delete("/:id", c.HandleDeleteBank)
	banks.Post("/:id/primary", c.HandleSetPrimaryBank)

	cards := group("/credit-cards", entitlements.FeatureCreditCards)
	cards.Get("/", c.HandleListCards)
	cards.Post("/", c.HandleCreateCard)
	cards.Put("/:id", c.HandleUpdateCard)
	cards.Delete("/:id", c.HandleDeleteCard)

	alerts := group("/alerts", entitlements.FeatureAlerts)
	alerts.Get("/", c.HandleListAlerts)
	alerts.Post("/", c.HandleCreateAlert)
	alerts.Put("/:id", c.HandleUpdateAlert)
	alerts.Delete("/:id", c.HandleDeleteAlert)

	// Stats are a report; registered before the /categories group so its gate does not apply.
	v1.Get("/categories/stats", authed, gate(entitlements.FeatureReports), c.HandleCategoryStats)
	cats := group("/categories", entitlements.FeatureCategories)
	cats.Get("/", c.HandleListCategories)
	cats.Post("/", c.HandleCreateCategory)
	cats.Put("/:id", c.HandleUpdateCategory)
	cats.Delete("/:id", c.HandleDeleteCategory)

	tx := group("/transactions", entitlements.FeatureTransactions)
	tx.Get("/", c.HandleListTransactions)
	tx.Post("/", c.HandleCreateTransaction)
	tx.Delete("/:id", c.HandleDeleteTransaction)

	loans := group("/loans", entitlements.FeatureLoans)
	loans.Get("/", c.HandleListLoans)
	loans.Post("/", c.HandleCreateLoan)
	loans.Post("/refresh", c.HandleRefreshLoans)
	loans.Get("/:id", c.HandleGetLoan)
	loans.Put("/:id", c.HandleUpdateLoan)
	loans.Delete("/:id", c.HandleDeleteLoan)

	goals := group("/goals", entitlements.FeatureGoals)
	goals.Get("/", c.HandleListGoals)
	goals.Post("/", c.HandleCreateGoal)
	goals.Put("/:id", c.HandleUpdateGoal)
	goals.Delete("/:id", c.HandleDeleteGoal)

	v1.Post("/exports/statements", authed, gate(entitlements.FeatureExports), c.HandleExportStatement)

	notes := v1.Group("/notifications", authed)
	notes.Get("/", c.HandleListNotifications)
	notes.Post("/:id/read", c.HandleMarkNotificationRead)
}
