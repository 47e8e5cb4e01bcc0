package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PennyFox/app/models"
)

type loanRepository struct {
	ownedRepository[models.Loan]
}

// NewLoanRepository creates a loan repository backed by GORM.
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{ownedRepository[models.Loan]{db: db, order: "next_payment_date ASC, id ASC"}}
}

func (r *loanRepository) ListByUser(ctx context.Context, userID uint) ([]models.Loan, error) {
	return r.listByUser(ctx, userID)
}

func (r *loanRepository) GetByID(ctx context.Context, userID, id uint) (*models.Loan, error) {
	return r.getByID(ctx, userID, id)
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan, omit ...string) error {
	q := r.db.WithContext(ctx)
	if len(omit) > 0 {
		q = q.Omit(omit...)
	}
	return translate(q.Create(loan).Error)
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan, omit ...string) error {
	q := r.db.WithContext(ctx).Where("user_id = ?", loan.UserID)
	if len(omit) > 0 {
		q = q.Omit(omit...)
	}
	return translate(q.Save(loan).Error)
}

func (r *loanRepository) UpdateSchedule(ctx context.Context, loan *models.Loan, omit ...string) error {
	updates := map[string]interface{}{
		ColumnPaidInstallments: loan.PaidInstallments,
		"next_payment_date":    loan.NextPaymentDate,
		"status":               loan.Status,
	}
	for _, col := range omit {
		delete(updates, col)
	}
	res := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("id = ? AND user_id = ?", loan.ID, loan.UserID).
		Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}

func (r *loanRepository) Delete(ctx context.Context, userID, id uint) error {
	return r.delete(ctx, userID, id)
}

func (r *loanRepository) ListUserIDsWithOpenLoans(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("status <> ?", models.LoanStatusPaidOff).
		Distinct("user_id").Pluck("user_id", &ids).Error
	return ids, translate(err)
}
