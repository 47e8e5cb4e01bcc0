package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"
)

const (
	TransactionSourceManual   = "manual"
	TransactionSourceLoan     = "loan_payment"
	TransactionSourceWhatsApp = "whatsapp"
)

// PaymentPeriodLayout formats the idempotency period of a loan payment.
const PaymentPeriodLayout = "2006-01"

// Transaction is a single ledger entry. Loan payments carry LoanID and
// PaymentPeriod; the unique index on the pair allows at most one payment
// per loan per calendar month. Manual entries leave both NULL.
type Transaction struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index:idx_transactions_user_date,priority:1" json:"user_id"`
	Type          string          `gorm:"type:varchar(10);not null" json:"type" validate:"oneof=income expense"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Description   string          `gorm:"type:varchar(255)" json:"description" validate:"max=255"`
	Date          time.Time       `gorm:"type:date;not null;index:idx_transactions_user_date,priority:2" json:"date"`
	BankID        *uint           `gorm:"index" json:"bank_id,omitempty"`
	CreditCardID  *uint           `gorm:"index" json:"credit_card_id,omitempty"`
	CategoryID    *uint           `gorm:"index" json:"category_id,omitempty"`
	Source        string          `gorm:"type:varchar(20);not null;default:'manual'" json:"source"`
	LoanID        *uint           `gorm:"uniqueIndex:ux_transactions_loan_period,priority:1" json:"loan_id,omitempty"`
	PaymentPeriod *string         `gorm:"type:char(7);uniqueIndex:ux_transactions_loan_period,priority:2" json:"payment_period,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// IsLoanPayment reports whether the entry was generated by automatic loan payment.
func (t *Transaction) IsLoanPayment() bool {
	return t.Source == TransactionSourceLoan && t.LoanID != nil
}

// SignedAmount is positive for income and negative for expenses.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// PaymentPeriodOf returns the YYYY-MM period for date.
func PaymentPeriodOf(date time.Time) string {
	return date.Format(PaymentPeriodLayout)
}
