package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles every repository the application uses.
type Repositories struct {
	User         UserRepository
	UserSettings UserSettingsRepository
	Subscription SubscriptionRepository
	Loan         LoanRepository
	Transaction  TransactionRepository
	Bank         BankRepository
	CreditCard   CreditCardRepository
	Alert        AlertRepository
	Category     CategoryRepository
	Goal         GoalRepository
	Notification NotificationRepository
}

// NewRepositories wires all GORM-backed repositories against db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		UserSettings: NewUserSettingsRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Loan:         NewLoanRepository(db),
		Transaction:  NewTransactionRepository(db),
		Bank:         NewBankRepository(db),
		CreditCard:   NewCreditCardRepository(db),
		Alert:        NewAlertRepository(db),
		Category:     NewCategoryRepository(db),
		Goal:         NewGoalRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

// Factory manages repository instances and ensures they are built once
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns the shared instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// DB exposes the handle the repositories were built on.
func (f *Factory) DB() *gorm.DB {
	return f.db
}
