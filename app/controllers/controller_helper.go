package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/accounts"
	"github.com/ManuelReschke/PennyFox/internal/pkg/bootstrap"
	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/export"
	"github.com/ManuelReschke/PennyFox/internal/pkg/ledger"
	"github.com/ManuelReschke/PennyFox/internal/pkg/loans"
	"github.com/ManuelReschke/PennyFox/internal/pkg/subscription"
	"github.com/ManuelReschke/PennyFox/internal/pkg/usercontext"
)

// Controller serves the JSON API on top of the container's services.
type Controller struct {
	deps     *bootstrap.Container
	validate *validator.Validate
}

func New(deps *bootstrap.Container) *Controller {
	return &Controller{deps: deps, validate: validator.New()}
}

// callCtx bounds a request's remote calls by REMOTE_CALL_TIMEOUT.
func (h *Controller) callCtx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	timeout := h.deps.Config.RemoteCallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

func userID(c *fiber.Ctx) uint {
	return usercontext.GetUserID(c)
}

func errorJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

// badRequestError is answered with 400 and its message.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error { return &badRequestError{msg: msg} }

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, badRequest("invalid " + name)
	}
	return uint(v), nil
}

// bodyInto parses the JSON body into dst.
func bodyInto(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

// respondError maps service errors onto status codes. Nothing fails silently.
func respondError(c *fiber.Ctx, err error) error {
	var limitErr *entitlements.LimitError
	var verrs validator.ValidationErrors
	var badReq *badRequestError
	switch {
	case errors.As(err, &badReq):
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", badReq.msg)
	case errors.As(err, &limitErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":       "limit_reached",
			"resource":    limitErr.Resource,
			"limit":       limitErr.Limit,
			"plan":        limitErr.Plan,
			"message":     limitErr.UpgradeMessage(),
			"upgrade_url": "/plans",
		})
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, loans.ErrLoanNotFound),
		errors.Is(err, accounts.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, subscription.ErrNoSubscription):
		return errorJSON(c, fiber.StatusNotFound, "not_found", "resource not found")
	case errors.As(err, &verrs),
		errors.Is(err, loans.ErrInvalidLoan),
		errors.Is(err, accounts.ErrInvalid),
		errors.Is(err, ledger.ErrInvalid),
		errors.Is(err, subscription.ErrUnknownPlan):
		return errorJSON(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.Is(err, ledger.ErrLoanPayment):
		return errorJSON(c, fiber.StatusConflict, "loan_payment", err.Error())
	case errors.Is(err, subscription.ErrTrialAlreadyUsed):
		return errorJSON(c, fiber.StatusConflict, "trial_already_used", "the free trial was already used")
	case errors.Is(err, repository.ErrDuplicate):
		return errorJSON(c, fiber.StatusConflict, "duplicate", "resource already exists")
	case errors.Is(err, accounts.ErrPlanUnavailable):
		return errorJSON(c, fiber.StatusServiceUnavailable, "subscription_unavailable", "subscription could not be loaded, try again")
	case errors.Is(err, export.ErrDisabled):
		return errorJSON(c, fiber.StatusServiceUnavailable, "export_disabled", "statement export is not configured")
	case errors.Is(err, context.DeadlineExceeded):
		return errorJSON(c, fiber.StatusGatewayTimeout, "timeout", "the request took too long")
	default:
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "something went wrong")
	}
}
