package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// UserSettings stores per-user preferences and the current subscription pointer.
type UserSettings struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	UserID                uint           `gorm:"uniqueIndex" json:"user_id"`
	CurrentSubscriptionID *uint          `gorm:"index" json:"current_subscription_id"`
	Currency              string         `gorm:"type:varchar(3);default:'BRL'" json:"currency"`
	EmailNotifications    bool           `gorm:"default:true" json:"email_notifications"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// GetOrCreateUserSettings returns existing settings or creates defaults
func GetOrCreateUserSettings(db *gorm.DB, userID uint) (*UserSettings, error) {
	var us UserSettings
	if err := db.Where("user_id = ?", userID).First(&us).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			us = UserSettings{UserID: userID, Currency: "BRL", EmailNotifications: true}
			if err := db.Create(&us).Error; err != nil {
				return nil, err
			}
			return &us, nil
		}
		return nil, err
	}
	return &us, nil
}

// PointTo moves the current subscription pointer.
func (us *UserSettings) PointTo(subscriptionID uint) {
	id := subscriptionID
	us.CurrentSubscriptionID = &id
}

// HasCurrentSubscription reports whether the pointer is set.
func (us *UserSettings) HasCurrentSubscription() bool {
	return us != nil && us.CurrentSubscriptionID != nil && *us.CurrentSubscriptionID != 0
}
