package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	AlertKindBudget     = "budget"
	AlertKindLowBalance = "low_balance"
	AlertKindBillDue    = "bill_due"
)

type Alert struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	Kind       string          `gorm:"type:varchar(20);not null" json:"kind" validate:"oneof=budget low_balance bill_due"`
	Title      string          `gorm:"type:varchar(120);not null" json:"title" validate:"required,max=120"`
	Threshold  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"threshold"`
	CategoryID *uint           `json:"category_id,omitempty"`
	BankID     *uint           `json:"bank_id,omitempty"`
	Active     bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}
