// Package ledger records income and expenses and keeps bank balances in step with them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
	// ErrLoanPayment protects automatic loan payments from manual deletion.
	ErrLoanPayment = errors.New("loan payments cannot be removed")
)

const dateLayout = "2006-01-02"

// TransactionInput is a new ledger entry.
type TransactionInput struct {
	Type         string          `json:"type" validate:"oneof=income expense"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description" validate:"max=255"`
	Date         string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	BankID       *uint           `json:"bank_id"`
	CreditCardID *uint           `json:"credit_card_id"`
	CategoryID   *uint           `json:"category_id"`
	// Source is set by the caller, never by the client.
	Source string `json:"-"`
}

type CategoryInput struct {
	Name  string `json:"name" validate:"required,max=80"`
	Type  string `json:"type" validate:"oneof=income expense"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type GoalInput struct {
	Name          string          `json:"name" validate:"required,max=120"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      string          `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

// Filter narrows List. Month is YYYY-MM; empty lists every month.
type Filter struct {
	Month      string
	BankID     uint
	CategoryID uint
	Limit      int
}

// Summary is the month overview shown on the dashboard.
type Summary struct {
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Count   int             `json:"count"`
}

type Service struct {
	transactions repository.TransactionRepository
	banks        repository.BankRepository
	cards        repository.CreditCardRepository
	categories   repository.CategoryRepository
	goals        repository.GoalRepository
	validate     *validator.Validate
	loc          *time.Location
	now          func() time.Time
}

func NewService(
	transactions repository.TransactionRepository,
	banks repository.BankRepository,
	cards repository.CreditCardRepository,
	categories repository.CategoryRepository,
	goals repository.GoalRepository,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		transactions: transactions,
		banks:        banks,
		cards:        cards,
		categories:   categories,
		goals:        goals,
		validate:     validator.New(),
		loc:          loc,
		now:          time.Now,
	}
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

// MonthRange returns [first day of month, first day of next month) in loc.
func MonthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(models.PaymentPeriodLayout, month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalid)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// CurrentMonth is the YYYY-MM of today.
func (s *Service) CurrentMonth() string {
	return s.now().In(s.loc).Format(models.PaymentPeriodLayout)
}

// Record stores the entry. An attached bank has its balance moved by the
// signed amount in the same database transaction.
func (s *Service) Record(ctx context.Context, userID uint, in TransactionInput) (*models.Transaction, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}

	now := s.now().In(s.loc)
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if in.Date != "" {
		d, err := time.ParseInLocation(dateLayout, in.Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date: %v", ErrInvalid, err)
		}
		date = d
	}

	if in.BankID != nil {
		if _, err := s.banks.GetByID(ctx, userID, *in.BankID); err != nil {
			return nil, fmt.Errorf("bank %d: %w", *in.BankID, notFound(err))
		}
	}
	if in.CreditCardID != nil {
		if _, err := s.cards.GetByID(ctx, userID, *in.CreditCardID); err != nil {
			return nil, fmt.Errorf("credit card %d: %w", *in.CreditCardID, notFound(err))
		}
	}
	if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, userID, *in.CategoryID); err != nil {
			return nil, fmt.Errorf("category %d: %w", *in.CategoryID, notFound(err))
		}
	}

	source := in.Source
	if source == "" {
		source = models.TransactionSourceManual
	}
	entry := &models.Transaction{
		UserID:       userID,
		Type:         in.Type,
		Amount:       in.Amount.Round(2),
		Description:  in.Description,
		Date:         date,
		BankID:       in.BankID,
		CreditCardID: in.CreditCardID,
		CategoryID:   in.CategoryID,
		Source:       source,
	}
	if err := s.transactions.CreateWithBalance(ctx, entry); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	log.Infof("[Ledger] User %d recorded %s %s (%s)", userID, entry.Type, entry.Amount.StringFixed(2), source)
	return entry, nil
}

// Remove deletes the entry and reverses its balance effect.
func (s *Service) Remove(ctx context.Context, userID, id uint) error {
	entry, err := s.transactions.GetByID(ctx, userID, id)
	if err != nil {
		return notFound(err)
	}
	if entry.IsLoanPayment() {
		return ErrLoanPayment
	}
	return notFound(s.transactions.DeleteWithBalance(ctx, userID, id))
}

func (s *Service) List(ctx context.Context, userID uint, f Filter) ([]models.Transaction, error) {
	rf := repository.TransactionFilter{BankID: f.BankID, CategoryID: f.CategoryID, Limit: f.Limit}
	if f.Month != "" {
		from, to, err := MonthRange(f.Month, s.loc)
		if err != nil {
			return nil, err
		}
		rf.From, rf.To = from, to
	}
	return s.transactions.List(ctx, userID, rf)
}

// MonthSummary totals the entries of month.
func (s *Service) MonthSummary(ctx context.Context, userID uint, month string) (*Summary, error) {
	from, to, err := MonthRange(month, s.loc)
	if err != nil {
		return nil, err
	}
	list, err := s.transactions.List(ctx, userID, repository.TransactionFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	sum := &Summary{From: from, To: to, Income: decimal.Zero, Expense: decimal.Zero, Count: len(list)}
	for _, t := range list {
		if t.Type == models.TransactionTypeIncome {
			sum.Income = sum.Income.Add(t.Amount)
		} else {
			sum.Expense = sum.Expense.Add(t.Amount)
		}
	}
	sum.Net = sum.Income.Sub(sum.Expense)
	return sum, nil
}

// CategoryStats aggregates one month per category.
func (s *Service) CategoryStats(ctx context.Context, userID uint, month string) ([]models.CategoryStats, error) {
	from, to, err := MonthRange(month, s.loc)
	if err != nil {
		return nil, err
	}
	return s.categories.Stats(ctx, userID, from, to)
}

// Categories

func (s *Service) ListCategories(ctx context.Context, userID uint) ([]models.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

func (s *Service) CreateCategory(ctx context.Context, userID uint, in CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}
	c := &models.Category{UserID: userID, Name: in.Name, Type: in.Type, Color: in.Color}
	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: category %q already exists", ErrInvalid, in.Name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, userID, id uint, in CategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}
	c, err := s.categories.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	c.Name, c.Type, c.Color = in.Name, in.Type, in.Color
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, userID, id uint) error {
	return notFound(s.categories.Delete(ctx, userID, id))
}

// FindCategory matches name case-insensitively among the user's categories.
func (s *Service) FindCategory(ctx context.Context, userID uint, name string) (*models.Category, error) {
	list, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if strings.EqualFold(list[i].Name, strings.TrimSpace(name)) {
			return &list[i], nil
		}
	}
	return nil, ErrNotFound
}

// Goals

func (s *Service) ListGoals(ctx context.Context, userID uint) ([]models.Goal, error) {
	return s.goals.ListByUser(ctx, userID)
}

func (s *Service) CreateGoal(ctx context.Context, userID uint, in GoalInput) (*models.Goal, error) {
	g := &models.Goal{UserID: userID}
	if err := s.applyGoal(g, in); err != nil {
		return nil, err
	}
	if err := s.goals.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (s *Service) UpdateGoal(ctx context.Context, userID, id uint, in GoalInput) (*models.Goal, error) {
	g, err := s.goals.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.applyGoal(g, in); err != nil {
		return nil, err
	}
	if err := s.goals.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}

func (s *Service) DeleteGoal(ctx context.Context, userID, id uint) error {
	return notFound(s.goals.Delete(ctx, userID, id))
}

func (s *Service) applyGoal(g *models.Goal, in GoalInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return err
	}
	if !in.TargetAmount.IsPositive() {
		return fmt.Errorf("%w: target_amount must be positive", ErrInvalid)
	}
	if in.CurrentAmount.IsNegative() {
		return fmt.Errorf("%w: current_amount must not be negative", ErrInvalid)
	}
	g.Name = in.Name
	g.TargetAmount = in.TargetAmount
	g.CurrentAmount = in.CurrentAmount
	g.Deadline = nil
	if in.Deadline != "" {
		d, err := time.ParseInLocation(dateLayout, in.Deadline, s.loc)
		if err != nil {
			return fmt.Errorf("%w: deadline: %v", ErrInvalid, err)
		}
		g.Deadline = &d
	}
	return nil
}
