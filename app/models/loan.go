package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	LoanStatusCurrent = "em_dia"
	// LoanStatusLate is accepted from storage but never assigned by the bookkeeping code.
	LoanStatusLate    = "atrasado"
	LoanStatusPaidOff = "quitado"
)

// Loan is an installment loan owned by one user.
// PaidInstallments is nil on rows written before the column existed.
type Loan struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"not null;index" json:"user_id"`
	Description      string          `gorm:"type:varchar(200)" json:"description" validate:"required,max=200"`
	Institution      string          `gorm:"type:varchar(120)" json:"institution" validate:"max=120"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Installments     int             `gorm:"not null" json:"installments" validate:"min=1,max=600"`
	InstallmentValue decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"installment_value"`
	InterestRate     decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"interest_rate"`
	StartDate        time.Time       `gorm:"type:date;not null" json:"start_date"`
	NextPaymentDate  time.Time       `gorm:"type:date;not null;index" json:"next_payment_date"`
	PaidInstallments *int            `gorm:"default:null" json:"paid_installments"`
	Status           string          `gorm:"type:varchar(20);not null;default:'em_dia';index" json:"status" validate:"oneof=em_dia atrasado quitado"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Paid returns PaidInstallments or 0 for legacy rows.
func (l *Loan) Paid() int {
	if l == nil || l.PaidInstallments == nil {
		return 0
	}
	return *l.PaidInstallments
}

// SetPaid stores n as the paid installment count.
func (l *Loan) SetPaid(n int) {
	v := n
	l.PaidInstallments = &v
}

// IsPaidOff reports the terminal status.
func (l *Loan) IsPaidOff() bool {
	return l.Status == LoanStatusPaidOff
}
