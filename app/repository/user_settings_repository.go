package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
)

type userSettingsRepository struct {
	db *gorm.DB
}

func NewUserSettingsRepository(db *gorm.DB) UserSettingsRepository {
	return &userSettingsRepository{db: db}
}

func (r *userSettingsRepository) GetOrCreate(ctx context.Context, userID uint) (*models.UserSettings, error) {
	return models.GetOrCreateUserSettings(r.db.WithContext(ctx), userID)
}

// Update writes the user-editable preferences only; the subscription pointer
// is owned by the subscription repository.
func (r *userSettingsRepository) Update(ctx context.Context, settings *models.UserSettings) error {
	return translate(r.db.WithContext(ctx).Model(settings).
		Select("currency", "email_notifications").
		Updates(settings).Error)
}
