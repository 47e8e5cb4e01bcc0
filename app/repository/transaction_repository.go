package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository backed by GORM.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// applyBalance adds delta to the bank balance inside tx.
func applyBalance(tx *gorm.DB, userID, bankID uint, entry *models.Transaction, reverse bool) error {
	delta := entry.SignedAmount()
	if reverse {
		delta = delta.Neg()
	}
	res := tx.Model(&models.Bank{}).
		Where("id = ? AND user_id = ?", bankID, userID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("bank %d: %w", bankID, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *transactionRepository) CreateWithBalance(ctx context.Context, t *models.Transaction) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if t.BankID == nil {
			return nil
		}
		return applyBalance(tx, t.UserID, *t.BankID, t, false)
	})
	err = translate(err)
	if errors.Is(err, ErrDuplicate) && t.LoanID != nil {
		return fmt.Errorf("%w: %w", ErrDuplicatePayment, err)
	}
	return err
}

func (r *transactionRepository) DeleteWithBalance(ctx context.Context, userID, id uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.Transaction
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&entry).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		if entry.BankID == nil {
			return nil
		}
		return applyBalance(tx, userID, *entry.BankID, &entry, true)
	}))
}

func (r *transactionRepository) GetByID(ctx context.Context, userID, id uint) (*models.Transaction, error) {
	var entry models.Transaction
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *transactionRepository) List(ctx context.Context, userID uint, filter TransactionFilter) ([]models.Transaction, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !filter.From.IsZero() {
		q = q.Where("date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("date < ?", filter.To)
	}
	if filter.BankID != 0 {
		q = q.Where("bank_id = ?", filter.BankID)
	}
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var out []models.Transaction
	err := q.Order("date DESC, id DESC").Find(&out).Error
	return out, translate(err)
}

// LoanPaymentExists also sees soft-deleted rows: the unique index still holds them.
func (r *transactionRepository) LoanPaymentExists(ctx context.Context, loanID uint, period string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Transaction{}).
		Where("loan_id = ? AND payment_period = ?", loanID, period).
		Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}
