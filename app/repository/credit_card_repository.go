package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
)

type creditCardRepository struct {
	ownedRepository[models.CreditCard]
}

func NewCreditCardRepository(db *gorm.DB) CreditCardRepository {
	return &creditCardRepository{ownedRepository[models.CreditCard]{db: db, order: "name ASC"}}
}

func (r *creditCardRepository) Create(ctx context.Context, card *models.CreditCard) error {
	return r.create(ctx, card)
}

func (r *creditCardRepository) ListByUser(ctx context.Context, userID uint) ([]models.CreditCard, error) {
	return r.listByUser(ctx, userID)
}

func (r *creditCardRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return r.countByUser(ctx, userID)
}

func (r *creditCardRepository) GetByID(ctx context.Context, userID, id uint) (*models.CreditCard, error) {
	return r.getByID(ctx, userID, id)
}

func (r *creditCardRepository) Update(ctx context.Context, card *models.CreditCard) error {
	return r.update(ctx, card)
}

func (r *creditCardRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.delete(ctx, userID, id)
}
