package loans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
	"github.com/ManuelReschke/PennyFox/app/repository"
	"github.com/ManuelReschke/PennyFox/internal/pkg/metrics"
)

var (
	ErrLoanNotFound = errors.New("loan not found")
	ErrInvalidLoan  = errors.New("invalid loan")
)

// Notifier receives user-facing messages produced by the bookkeeping passes.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
	// NotifyOnce drops n when the same type and reference were already
	// notified today.
	NotifyOnce(ctx context.Context, n models.Notification) error
}

// Input is the user-editable part of a loan.
type Input struct {
	Description      string          `json:"description" validate:"required,max=200"`
	Institution      string          `json:"institution" validate:"max=120"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Installments     int             `json:"installments" validate:"min=1,max=600"`
	InstallmentValue decimal.Decimal `json:"installment_value"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	NextPaymentDate  string          `json:"next_payment_date" validate:"required,datetime=2006-01-02"`
	PaidInstallments int             `json:"paid_installments" validate:"min=0"`
}

// View is a loan with its derived remaining figures.
type View struct {
	models.Loan
	PaidInstallments      int             `json:"paid_installments"`
	RemainingInstallments int             `json:"remaining_installments"`
	RemainingAmount       decimal.Decimal `json:"remaining_amount"`
}

// Failure describes a loan that could not be processed in one pass.
type Failure struct {
	LoanID uint   `json:"loan_id"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// RefreshReport summarizes one Refresh call.
type RefreshReport struct {
	Loans       int       `json:"loans"`
	CaughtUp    []uint    `json:"caught_up"`
	Credited    int       `json:"credited"`
	Paid        []uint    `json:"paid"`
	Healed      []uint    `json:"healed"`
	Skipped     []uint    `json:"skipped"`
	Failures    []Failure `json:"failures"`
	SchemaWarns int       `json:"schema_warnings"`
}

func (r *RefreshReport) fail(loanID uint, stage string, err error) {
	r.Failures = append(r.Failures, Failure{LoanID: loanID, Stage: stage, Error: err.Error()})
}

// Manager owns loan CRUD and the catch-up and automatic-payment passes.
type Manager struct {
	loans        repository.LoanRepository
	transactions repository.TransactionRepository
	banks        repository.BankRepository
	notifier     Notifier
	validate     *validator.Validate
	loc          *time.Location
	now          func() time.Time
	locks        sync.Map
}

// NewManager builds a Manager. loc decides which calendar day "today" is.
func NewManager(
	loans repository.LoanRepository,
	transactions repository.TransactionRepository,
	banks repository.BankRepository,
	notifier Notifier,
	loc *time.Location,
) *Manager {
	if loc == nil {
		loc = time.Local
	}
	return &Manager{
		loans:        loans,
		transactions: transactions,
		banks:        banks,
		notifier:     notifier,
		validate:     validator.New(),
		loc:          loc,
		now:          time.Now,
	}
}

func (m *Manager) today() time.Time {
	return Today(m.now(), m.loc)
}

// lock serializes Refresh and writes per user inside this process.
func (m *Manager) lock(userID uint) func() {
	v, _ := m.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Fetch lists the user's loans with remaining figures.
func (m *Manager) Fetch(ctx context.Context, userID uint) ([]View, error) {
	list, err := m.loans.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	views := make([]View, 0, len(list))
	for _, l := range list {
		views = append(views, viewOf(l))
	}
	return views, nil
}

// Get returns one loan of the user.
func (m *Manager) Get(ctx context.Context, userID, loanID uint) (*View, error) {
	l, err := m.loans.GetByID(ctx, userID, loanID)
	if err != nil {
		return nil, notFound(err)
	}
	v := viewOf(*l)
	return &v, nil
}

func viewOf(l models.Loan) View {
	left, amount := Remaining(l)
	return View{Loan: l, PaidInstallments: EffectivePaid(l), RemainingInstallments: left, RemainingAmount: amount}
}

// Add registers a loan. The start date is inferred from the next due date
// and the installments already paid.
func (m *Manager) Add(ctx context.Context, userID uint, in Input) (*View, error) {
	loan, err := m.build(in)
	if err != nil {
		return nil, err
	}
	loan.UserID = userID
	loan.StartDate = InferStartDate(loan.NextPaymentDate, in.PaidInstallments)
	loan = NormalizeEdit(loan, m.today())

	defer m.lock(userID)()
	if err := m.loans.Create(ctx, &loan); err != nil {
		if !repository.IsMissingColumn(err) {
			return nil, fmt.Errorf("create loan: %w", err)
		}
		m.schemaWarning(ctx, userID, loan.ID, err)
		if err := m.loans.Create(ctx, &loan, repository.ColumnPaidInstallments); err != nil {
			return nil, fmt.Errorf("create loan without %s: %w", repository.ColumnPaidInstallments, err)
		}
	}
	log.Infof("[Loans] User %d added loan %d (%d/%d paid, next %s)", userID, loan.ID, loan.Paid(), loan.Installments, loan.NextPaymentDate.Format("2006-01-02"))
	v := viewOf(loan)
	return &v, nil
}

// Edit replaces the editable fields. A past next date is caught up.
func (m *Manager) Edit(ctx context.Context, userID, loanID uint, in Input) (*View, error) {
	updated, err := m.build(in)
	if err != nil {
		return nil, err
	}

	defer m.lock(userID)()
	existing, err := m.loans.GetByID(ctx, userID, loanID)
	if err != nil {
		return nil, notFound(err)
	}

	loan := *existing
	loan.Description = updated.Description
	loan.Institution = updated.Institution
	loan.TotalAmount = updated.TotalAmount
	loan.Installments = updated.Installments
	loan.InstallmentValue = updated.InstallmentValue
	loan.InterestRate = updated.InterestRate
	loan.NextPaymentDate = updated.NextPaymentDate
	loan.PaidInstallments = updated.PaidInstallments
	loan.StartDate = InferStartDate(loan.NextPaymentDate, in.PaidInstallments)

	before := loan.Paid()
	loan = NormalizeEdit(loan, m.today())
	if credited := loan.Paid() - before; credited > 0 {
		metrics.InstallmentsCredited.WithLabelValues("edit").Add(float64(credited))
	}

	if err := m.loans.Update(ctx, &loan); err != nil {
		if !repository.IsMissingColumn(err) {
			return nil, fmt.Errorf("update loan: %w", err)
		}
		m.schemaWarning(ctx, userID, loan.ID, err)
		if err := m.loans.Update(ctx, &loan, repository.ColumnPaidInstallments); err != nil {
			return nil, fmt.Errorf("update loan without %s: %w", repository.ColumnPaidInstallments, err)
		}
	}
	v := viewOf(loan)
	return &v, nil
}

// Delete removes the loan. Payments already recorded stay in the ledger.
func (m *Manager) Delete(ctx context.Context, userID, loanID uint) error {
	defer m.lock(userID)()
	if err := m.loans.Delete(ctx, userID, loanID); err != nil {
		return notFound(err)
	}
	log.Infof("[Loans] User %d deleted loan %d", userID, loanID)
	return nil
}

// build validates in and turns it into an unsaved loan.
func (m *Manager) build(in Input) (models.Loan, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := m.validate.Struct(in); err != nil {
		return models.Loan{}, fmt.Errorf("%w: %v", ErrInvalidLoan, err)
	}
	if in.PaidInstallments > in.Installments {
		return models.Loan{}, fmt.Errorf("%w: paid_installments exceeds installments", ErrInvalidLoan)
	}
	if in.InterestRate.IsNegative() {
		return models.Loan{}, fmt.Errorf("%w: interest_rate must not be negative", ErrInvalidLoan)
	}

	next, err := time.ParseInLocation("2006-01-02", in.NextPaymentDate, m.loc)
	if err != nil {
		return models.Loan{}, fmt.Errorf("%w: next_payment_date: %v", ErrInvalidLoan, err)
	}

	count := decimal.NewFromInt(int64(in.Installments))
	value, total := in.InstallmentValue, in.TotalAmount
	switch {
	case value.IsPositive() && !total.IsPositive():
		total = value.Mul(count)
	case !value.IsPositive() && total.IsPositive():
		value = total.Div(count).Round(2)
	case !value.IsPositive() && !total.IsPositive():
		return models.Loan{}, fmt.Errorf("%w: total_amount or installment_value is required", ErrInvalidLoan)
	}

	loan := models.Loan{
		Description:      in.Description,
		Institution:      strings.TrimSpace(in.Institution),
		TotalAmount:      total,
		Installments:     in.Installments,
		InstallmentValue: value,
		InterestRate:     in.InterestRate,
		NextPaymentDate:  next,
		Status:           StatusFor(in.PaidInstallments, in.Installments),
	}
	loan.SetPaid(in.PaidInstallments)
	return loan, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLoanNotFound
	}
	return err
}
