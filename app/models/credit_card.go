package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreditCard struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Name        string          `gorm:"type:varchar(120);not null" json:"name" validate:"required,max=120"`
	Brand       string          `gorm:"type:varchar(30)" json:"brand" validate:"max=30"`
	LastDigits  string          `gorm:"type:char(4)" json:"last_digits" validate:"omitempty,len=4,numeric"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"credit_limit"`
	ClosingDay  int             `gorm:"not null;default:1" json:"closing_day" validate:"min=1,max=31"`
	DueDay      int             `gorm:"not null;default:10" json:"due_day" validate:"min=1,max=31"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
