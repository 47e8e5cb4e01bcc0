package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Goal struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Name          string          `gorm:"type:varchar(120);not null" json:"name" validate:"required,max=120"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"current_amount"`
	Deadline      *time.Time      `gorm:"type:date;default:null" json:"deadline,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Progress returns the reached share in [0,1].
func (g *Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	p := g.CurrentAmount.Div(g.TargetAmount)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	if p.IsNegative() {
		return decimal.Zero
	}
	return p.Round(4)
}

// Reached reports whether CurrentAmount covers TargetAmount.
func (g *Goal) Reached() bool {
	return g.TargetAmount.IsPositive() && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}
