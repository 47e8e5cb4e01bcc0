package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PennyFox/internal/pkg/metrics"
	"github.com/ManuelReschke/PennyFox/internal/pkg/subscription"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
	// ErrPlanUnavailable is returned when limits cannot be checked because
	// the subscription could not be loaded.
	ErrPlanUnavailable = errors.New("subscription state unavailable")
)

// PlanSource yields the subscription state limits are checked against.
type PlanSource interface {
	State(ctx context.Context, userID uint) subscription.State
}

type BankInput struct {
	Name           string          `json:"name" validate:"required,max=120"`
	Agency         string          `json:"agency" validate:"max=20"`
	Account        string          `json:"account" validate:"max=30"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type CardInput struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Brand       string          `json:"brand" validate:"max=30"`
	LastDigits  string          `json:"last_digits" validate:"omitempty,len=4,numeric"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	ClosingDay  int             `json:"closing_day" validate:"min=1,max=31"`
	DueDay      int             `json:"due_day" validate:"min=1,max=31"`
}

type AlertInput struct {
	Kind       string          `json:"kind" validate:"oneof=budget low_balance bill_due"`
	Title      string          `json:"title" validate:"required,max=120"`
	Threshold  decimal.Decimal `json:"threshold"`
	CategoryID *uint           `json:"category_id"`
	BankID     *uint           `json:"bank_id"`
	Active     *bool           `json:"active"`
}

// Service manages banks, credit cards and alerts under the plan limits.
type Service struct {
	banks    repository.BankRepository
	cards    repository.CreditCardRepository
	alerts   repository.AlertRepository
	plans    PlanSource
	validate *validator.Validate
}

func NewService(banks repository.BankRepository, cards repository.CreditCardRepository, alerts repository.AlertRepository, plans PlanSource) *Service {
	return &Service{banks: banks, cards: cards, alerts: alerts, plans: plans, validate: validator.New()}
}

// checkLimit counts the user's existing resources and refuses one more past the plan limit.
func (s *Service) checkLimit(ctx context.Context, userID uint, r entitlements.Resource, count func(context.Context, uint) (int64, error)) error {
	st := s.plans.State(ctx, userID)
	if !st.Loaded {
		return fmt.Errorf("%w: %v", ErrPlanUnavailable, st.Err)
	}
	n, err := count(ctx, userID)
	if err != nil {
		return fmt.Errorf("count %s: %w", r, err)
	}
	if err := entitlements.CheckLimit(st.Plan, r, n); err != nil {
		metrics.LimitDenials.WithLabelValues(string(r), string(st.Plan)).Inc()
		log.Infof("[Accounts] User %d hit the %s limit on plan %s", userID, r, st.Plan)
		return err
	}
	return nil
}

func (s *Service) check(in interface{}) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Banks

func (s *Service) ListBanks(ctx context.Context, userID uint) ([]models.Bank, error) {
	return s.banks.ListByUser(ctx, userID)
}

func (s *Service) GetBank(ctx context.Context, userID, id uint) (*models.Bank, error) {
	b, err := s.banks.GetByID(ctx, userID, id)
	return b, notFound(err)
}

// CreateBank adds a bank account. The user's first bank becomes primary.
func (s *Service) CreateBank(ctx context.Context, userID uint, in BankInput) (*models.Bank, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if err := s.checkLimit(ctx, userID, entitlements.ResourceBankAccounts, s.banks.CountByUser); err != nil {
		return nil, err
	}
	_, err := s.banks.GetPrimary(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load primary bank: %w", err)
	}

	bank := &models.Bank{
		UserID:    userID,
		Name:      in.Name,
		Agency:    in.Agency,
		Account:   in.Account,
		Balance:   in.InitialBalance,
		IsPrimary: errors.Is(err, gorm.ErrRecordNotFound),
	}
	if err := s.banks.Create(ctx, bank); err != nil {
		return nil, fmt.Errorf("create bank: %w", err)
	}
	return bank, nil
}

// UpdateBank changes the descriptive fields. The balance is owned by the ledger.
func (s *Service) UpdateBank(ctx context.Context, userID, id uint, in BankInput) (*models.Bank, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}
	bank, err := s.banks.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	bank.Name, bank.Agency, bank.Account = in.Name, in.Agency, in.Account
	if err := s.banks.Update(ctx, bank); err != nil {
		return nil, fmt.Errorf("update bank: %w", err)
	}
	return bank, nil
}

func (s *Service) DeleteBank(ctx context.Context, userID, id uint) error {
	return notFound(s.banks.Delete(ctx, userID, id))
}

// SetPrimary makes id the only primary bank of the user.
func (s *Service) SetPrimary(ctx context.Context, userID, id uint) error {
	if err := s.banks.SetPrimary(ctx, userID, id); err != nil {
		return notFound(err)
	}
	log.Infof("[Accounts] User %d set bank %d as primary", userID, id)
	return nil
}

func (s *Service) Primary(ctx context.Context, userID uint) (*models.Bank, error) {
	b, err := s.banks.GetPrimary(ctx, userID)
	return b, notFound(err)
}

// Credit cards

func (s *Service) ListCards(ctx context.Context, userID uint) ([]models.CreditCard, error) {
	return s.cards.ListByUser(ctx, userID)
}

func (s *Service) CreateCard(ctx context.Context, userID uint, in CardInput) (*models.CreditCard, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if err := s.checkLimit(ctx, userID, entitlements.ResourceCreditCards, s.cards.CountByUser); err != nil {
		return nil, err
	}
	card := &models.CreditCard{UserID: userID}
	applyCard(card, in)
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("create credit card: %w", err)
	}
	return card, nil
}

func (s *Service) UpdateCard(ctx context.Context, userID, id uint, in CardInput) (*models.CreditCard, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}
	card, err := s.cards.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	applyCard(card, in)
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, fmt.Errorf("update credit card: %w", err)
	}
	return card, nil
}

func (s *Service) DeleteCard(ctx context.Context, userID, id uint) error {
	return notFound(s.cards.Delete(ctx, userID, id))
}

func applyCard(card *models.CreditCard, in CardInput) {
	card.Name = in.Name
	card.Brand = in.Brand
	card.LastDigits = in.LastDigits
	card.CreditLimit = in.CreditLimit
	card.ClosingDay = in.ClosingDay
	card.DueDay = in.DueDay
}

// Alerts

func (s *Service) ListAlerts(ctx context.Context, userID uint) ([]models.Alert, error) {
	return s.alerts.ListByUser(ctx, userID)
}

func (s *Service) CreateAlert(ctx context.Context, userID uint, in AlertInput) (*models.Alert, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if err := s.checkLimit(ctx, userID, entitlements.ResourceAlerts, s.alerts.CountByUser); err != nil {
		return nil, err
	}
	alert := &models.Alert{UserID: userID, Active: true}
	applyAlert(alert, in)
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	return alert, nil
}

func (s *Service) UpdateAlert(ctx context.Context, userID, id uint, in AlertInput) (*models.Alert, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return nil, err
	}
	alert, err := s.alerts.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	applyAlert(alert, in)
	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}
	return alert, nil
}

func (s *Service) DeleteAlert(ctx context.Context, userID, id uint) error {
	return notFound(s.alerts.Delete(ctx, userID, id))
}

func applyAlert(alert *models.Alert, in AlertInput) {
	alert.Kind = in.Kind
	alert.Title = in.Title
	alert.Threshold = in.Threshold
	alert.CategoryID = in.CategoryID
	alert.BankID = in.BankID
	if in.Active != nil {
		alert.Active = *in.Active
	}
}
