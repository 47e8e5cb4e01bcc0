package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/PennyFox/app/models"
)

// Columns that may be absent on databases that predate their migration.
const ColumnPaidInstallments = "paid_installments"

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByWhatsAppNumber(ctx context.Context, number string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// UserSettingsRepository reads and writes per-user preferences.
type UserSettingsRepository interface {
	// GetOrCreate returns the settings row, creating defaults on first use.
	GetOrCreate(ctx context.Context, userID uint) (*models.UserSettings, error)
	Update(ctx context.Context, settings *models.UserSettings) error
}

// SubscriptionRepository manages subscription rows and the current-subscription pointer.
type SubscriptionRepository interface {
	// GetCurrent returns the authoritative subscription or gorm.ErrRecordNotFound.
	GetCurrent(ctx context.Context, userID uint) (*models.Subscription, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	// CreateCurrent inserts sub, expires the previous row (if any) and moves
	// the pointer, all in one database transaction.
	CreateCurrent(ctx context.Context, sub *models.Subscription, previousID *uint) error
	Save(ctx context.Context, sub *models.Subscription) error
}

// LoanRepository loans are always scoped by user id.
type LoanRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Loan, error)
	GetByID(ctx context.Context, userID, id uint) (*models.Loan, error)
	Create(ctx context.Context, loan *models.Loan, omit ...string) error
	Update(ctx context.Context, loan *models.Loan, omit ...string) error
	// UpdateSchedule writes only paid_installments, next_payment_date and status.
	UpdateSchedule(ctx context.Context, loan *models.Loan, omit ...string) error
	Delete(ctx context.Context, userID, id uint) error
	ListUserIDsWithOpenLoans(ctx context.Context) ([]uint, error)
}

// TransactionFilter narrows List results. Zero values are ignored.
type TransactionFilter struct {
	From       time.Time
	To         time.Time
	BankID     uint
	CategoryID uint
	Limit      int
}

// TransactionRepository writes ledger entries together with their bank balance effect.
type TransactionRepository interface {
	// CreateWithBalance inserts t and applies its signed amount to the bank in one DB transaction.
	CreateWithBalance(ctx context.Context, t *models.Transaction) error
	// DeleteWithBalance removes the entry and reverses its balance effect.
	DeleteWithBalance(ctx context.Context, userID, id uint) error
	GetByID(ctx context.Context, userID, id uint) (*models.Transaction, error)
	List(ctx context.Context, userID uint, filter TransactionFilter) ([]models.Transaction, error)
	LoanPaymentExists(ctx context.Context, loanID uint, period string) (bool, error)
}

type BankRepository interface {
	Create(ctx context.Context, bank *models.Bank) error
	ListByUser(ctx context.Context, userID uint) ([]models.Bank, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	GetByID(ctx context.Context, userID, id uint) (*models.Bank, error)
	Update(ctx context.Context, bank *models.Bank) error
	Delete(ctx context.Context, userID, id uint) error
	// GetPrimary returns gorm.ErrRecordNotFound when no bank is flagged primary.
	GetPrimary(ctx context.Context, userID uint) (*models.Bank, error)
	SetPrimary(ctx context.Context, userID, id uint) error
}

type CreditCardRepository interface {
	Create(ctx context.Context, card *models.CreditCard) error
	ListByUser(ctx context.Context, userID uint) ([]models.CreditCard, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	GetByID(ctx context.Context, userID, id uint) (*models.CreditCard, error)
	Update(ctx context.Context, card *models.CreditCard) error
	Delete(ctx context.Context, userID, id uint) error
}

type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	ListByUser(ctx context.Context, userID uint) ([]models.Alert, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	GetByID(ctx context.Context, userID, id uint) (*models.Alert, error)
	Update(ctx context.Context, alert *models.Alert) error
	Delete(ctx context.Context, userID, id uint) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	ListByUser(ctx context.Context, userID uint) ([]models.Category, error)
	GetByID(ctx context.Context, userID, id uint) (*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, userID, id uint) error
	// Stats aggregates income and expense per category for [from, to).
	Stats(ctx context.Context, userID uint, from, to time.Time) ([]models.CategoryStats, error)
}

type GoalRepository interface {
	Create(ctx context.Context, goal *models.Goal) error
	ListByUser(ctx context.Context, userID uint) ([]models.Goal, error)
	GetByID(ctx context.Context, userID, id uint) (*models.Goal, error)
	Update(ctx context.Context, goal *models.Goal) error
	Delete(ctx context.Context, userID, id uint) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uint) error
	// ExistsSince reports whether a notification of kind about referenceID was created at or after since.
	ExistsSince(ctx context.Context, userID uint, kind string, referenceID uint, since time.Time) (bool, error)
}
