package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:ux_categories_user_name,priority:1" json:"user_id"`
	Name      string         `gorm:"type:varchar(80);not null;uniqueIndex:ux_categories_user_name,priority:2" json:"name" validate:"required,max=80"`
	Type      string         `gorm:"type:varchar(10);not null" json:"type" validate:"oneof=income expense"`
	Color     string         `gorm:"type:varchar(7)" json:"color" validate:"omitempty,hexcolor"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CategoryStats is one row of the per-category aggregation.
type CategoryStats struct {
	CategoryID   *uint           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Count        int64           `json:"count"`
}
