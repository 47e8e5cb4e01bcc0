package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
)

type goalRepository struct {
	ownedRepository[models.Goal]
}

func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{ownedRepository[models.Goal]{db: db, order: "deadline IS NULL, deadline ASC, id ASC"}}
}

func (r *goalRepository) Create(ctx context.Context, goal *models.Goal) error {
	return r.create(ctx, goal)
}

func (r *goalRepository) ListByUser(ctx context.Context, userID uint) ([]models.Goal, error) {
	return r.listByUser(ctx, userID)
}

func (r *goalRepository) GetByID(ctx context.Context, userID, id uint) (*models.Goal, error) {
	return r.getByID(ctx, userID, id)
}

func (r *goalRepository) Update(ctx context.Context, goal *models.Goal) error {
	return r.update(ctx, goal)
}

func (r *goalRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.delete(ctx, userID, id)
}
