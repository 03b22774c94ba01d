package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/petstore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// filterFunc applies a repository's search and filter keys to a query
type filterFunc func(query *gorm.DB, filter shared.Filter) *gorm.DB

// table is the single-table CRUD every repository shares.
// Aggregates with child rows (orders, receipts) add their own transactions on top.
type table[T any] struct {
	db *gorm.DB
}

func (t table[T]) model(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Model(new(T))
}

// get returns the first row matching cond, or shared.ErrNotFound
func (t table[T]) get(ctx context.Context, cond string, args ...any) (*T, error) {
	row := new(T)
	if err := t.db.WithContext(ctx).Where(cond, args...).First(row).Error; err != nil {
		return nil, notFound(err)
	}
	return row, nil
}

func (t table[T]) list(ctx context.Context, filter shared.Filter, apply filterFunc, sortable map[string]bool, defaultOrder string) ([]T, error) {
	var rows []T
	query := paginate(apply(t.model(ctx), filter), filter, sortable, defaultOrder)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (t table[T]) byIDs(ctx context.Context, ids []uuid.UUID) ([]T, error) {
	rows := []T{}
	if len(ids) == 0 {
		return rows, nil
	}
	if err := t.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (t table[T]) count(ctx context.Context, filter shared.Filter, apply filterFunc) (int64, error) {
	var n int64
	if err := apply(t.model(ctx), filter).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (t table[T]) countWhere(ctx context.Context, cond string, args ...any) (int64, error) {
	var n int64
	if err := t.model(ctx).Where(cond, args...).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (t table[T]) exists(ctx context.Context, cond string, args ...any) (bool, error) {
	n, err := t.countWhere(ctx, cond, args...)
	return n > 0, err
}

// save inserts a new row or updates a loaded one under its version check
func (t table[T]) save(ctx context.Context, row *T) error {
	if err := saveVersioned(t.db.WithContext(ctx), row); err != nil {
		return err
	}
	markSaved(row)
	return nil
}

// remove deletes by primary key; a missing row is shared.ErrNotFound
func (t table[T]) remove(ctx context.Context, id uuid.UUID) error {
	res := t.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return shared.ErrNotFound
	}
	return nil
}
