package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
)

type alertRepository struct {
	ownedRepository[models.Alert]
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{ownedRepository[models.Alert]{db: db, order: "created_at DESC"}}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.Alert) error {
	return r.create(ctx, alert)
}

func (r *alertRepository) ListByUser(ctx context.Context, userID uint) ([]models.Alert, error) {
	return r.listByUser(ctx, userID)
}

func (r *alertRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return r.countByUser(ctx, userID)
}

func (r *alertRepository) GetByID(ctx context.Context, userID, id uint) (*models.Alert, error) {
	return r.getByID(ctx, userID, id)
}

func (r *alertRepository) Update(ctx context.Context, alert *models.Alert) error {
	return r.update(ctx, alert)
}

func (r *alertRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.delete(ctx, userID, id)
}
