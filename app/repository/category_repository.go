package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
)

type categoryRepository struct {
	ownedRepository[models.Category]
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{ownedRepository[models.Category]{db: db, order: "name ASC"}}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.create(ctx, category)
}

func (r *categoryRepository) ListByUser(ctx context.Context, userID uint) ([]models.Category, error) {
	return r.listByUser(ctx, userID)
}

func (r *categoryRepository) GetByID(ctx context.Context, userID, id uint) (*models.Category, error) {
	return r.getByID(ctx, userID, id)
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.update(ctx, category)
}

func (r *categoryRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.delete(ctx, userID, id)
}

// Stats groups uncategorized entries under a NULL category id.
func (r *categoryRepository) Stats(ctx context.Context, userID uint, from, to time.Time) ([]models.CategoryStats, error) {
	var rows []models.CategoryStats
	err := r.db.WithContext(ctx).
		Table("transactions AS t").
		Select(`t.category_id AS category_id,
			COALESCE(c.name, '') AS category_name,
			COALESCE(SUM(CASE WHEN t.type = ? THEN t.amount ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN t.type = ? THEN t.amount ELSE 0 END), 0) AS expense,
			COUNT(*) AS count`, models.TransactionTypeIncome, models.TransactionTypeExpense).
		Joins("LEFT JOIN categories AS c ON c.id = t.category_id AND c.deleted_at IS NULL").
		Where("t.user_id = ? AND t.date >= ? AND t.date < ? AND t.deleted_at IS NULL", userID, from, to).
		Group("t.category_id, c.name").
		Order("expense DESC").
		Scan(&rows).Error
	return rows, translate(err)
}
