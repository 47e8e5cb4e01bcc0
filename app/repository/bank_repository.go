package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
)

type bankRepository struct {
	ownedRepository[models.Bank]
}

// NewBankRepository creates a bank repository backed by GORM.
func NewBankRepository(db *gorm.DB) BankRepository {
	return &bankRepository{ownedRepository[models.Bank]{db: db, order: "is_primary DESC, name ASC"}}
}

func (r *bankRepository) Create(ctx context.Context, bank *models.Bank) error {
	return r.create(ctx, bank)
}

func (r *bankRepository) ListByUser(ctx context.Context, userID uint) ([]models.Bank, error) {
	return r.listByUser(ctx, userID)
}

func (r *bankRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return r.countByUser(ctx, userID)
}

func (r *bankRepository) GetByID(ctx context.Context, userID, id uint) (*models.Bank, error) {
	return r.getByID(ctx, userID, id)
}

func (r *bankRepository) Update(ctx context.Context, bank *models.Bank) error {
	return r.update(ctx, bank)
}

func (r *bankRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.delete(ctx, userID, id)
}

func (r *bankRepository) GetPrimary(ctx context.Context, userID uint) (*models.Bank, error) {
	var bank models.Bank
	err := r.db.WithContext(ctx).Where("user_id = ? AND is_primary = ?", userID, true).
		Order("id ASC").First(&bank).Error
	if err != nil {
		return nil, err
	}
	return &bank, nil
}

// SetPrimary clears the flag on every other bank of the user in the same transaction.
func (r *bankRepository) SetPrimary(ctx context.Context, userID, id uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bank models.Bank
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&bank).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Bank{}).Where("user_id = ? AND id <> ?", userID, id).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&bank).Update("is_primary", true).Error
	}))
}
