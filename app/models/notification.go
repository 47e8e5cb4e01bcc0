package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationAutopaySkipped = "autopay_skipped"
	NotificationAutopayCreated = "autopay_created"
	NotificationLoanPaidOff    = "loan_paid_off"
	NotificationSchemaWarning  = "schema_warning"
	NotificationExportReady    = "export_ready"
)

const (
	NotificationLevelInfo    = "info"
	NotificationLevelWarning = "warning"
)

type Notification struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	Type        string         `gorm:"type:varchar(50)" json:"type" validate:"oneof=autopay_skipped autopay_created loan_paid_off schema_warning export_ready"`
	Level       string         `gorm:"type:varchar(10);default:'info'" json:"level"`
	Content     string         `gorm:"type:text" json:"content"`
	IsRead      bool           `gorm:"default:false" json:"is_read"`
	ReferenceID uint           `json:"reference_id"` // id of the loan or job the message refers to
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsWarning reports whether the notification should also reach the user by email.
func (n *Notification) IsWarning() bool {
	return n.Level == NotificationLevelWarning
}
