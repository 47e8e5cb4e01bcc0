package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a subscription repository backed by GORM.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetCurrent(ctx context.Context, userID uint) (*models.Subscription, error) {
	db := r.db.WithContext(ctx)
	us, err := models.GetOrCreateUserSettings(db, userID)
	if err != nil {
		return nil, err
	}

	if us.HasCurrentSubscription() {
		var sub models.Subscription
		err := db.Where("id = ? AND user_id = ?", *us.CurrentSubscriptionID, userID).First(&sub).Error
		if err == nil {
			return &sub, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		log.Warnf("[Subscription] Pointer of user %d references missing row %d", userID, *us.CurrentSubscriptionID)
	}

	// Rows created before the pointer existed: newest row wins, then backfill.
	var sub models.Subscription
	if err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&sub).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.UserSettings{}).Where("id = ?", us.ID).
		Update("current_subscription_id", sub.ID).Error; err != nil {
		log.Warnf("[Subscription] Failed to backfill pointer for user %d: %v", userID, err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *subscriptionRepository) CreateCurrent(ctx context.Context, sub *models.Subscription, previousID *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if previousID != nil && *previousID != 0 {
			now := time.Now()
			if err := tx.Model(&models.Subscription{}).
				Where("id = ? AND user_id = ? AND status = ?", *previousID, sub.UserID, models.SubscriptionStatusActive).
				Updates(map[string]interface{}{
					"status":                 models.SubscriptionStatusExpired,
					"current_period_ends_at": now,
				}).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		us, err := models.GetOrCreateUserSettings(tx, sub.UserID)
		if err != nil {
			return err
		}
		return tx.Model(us).Update("current_subscription_id", sub.ID).Error
	})
}

func (r *subscriptionRepository) Save(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}
