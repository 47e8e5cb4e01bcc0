package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bank is a bank account. At most one bank per user is primary; the primary
// bank funds automatic loan payments.
type Bank struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Name      string          `gorm:"type:varchar(120);not null" json:"name" validate:"required,max=120"`
	Agency    string          `gorm:"type:varchar(20)" json:"agency" validate:"max=20"`
	Account   string          `gorm:"type:varchar(30)" json:"account" validate:"max=30"`
	Balance   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance"`
	IsPrimary bool            `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}
