package repository

import (
	"context"

	"gorm.io/gorm"
)

// ownedRepository holds the CRUD shared by tables that carry a user_id column.
// Every read and delete is scoped by the owner.
type ownedRepository[T any] struct {
	db    *gorm.DB
	order string
}

func (r ownedRepository[T]) create(ctx context.Context, m *T) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r ownedRepository[T]) listByUser(ctx context.Context, userID uint) ([]T, error) {
	var out []T
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if r.order != "" {
		q = q.Order(r.order)
	}
	err := q.Find(&out).Error
	return out, translate(err)
}

func (r ownedRepository[T]) countByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).Where("user_id = ?", userID).Count(&n).Error
	return n, translate(err)
}

func (r ownedRepository[T]) getByID(ctx context.Context, userID, id uint) (*T, error) {
	var m T
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r ownedRepository[T]) update(ctx context.Context, m *T) error {
	return translate(r.db.WithContext(ctx).Save(m).Error)
}

func (r ownedRepository[T]) delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
