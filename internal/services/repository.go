package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Order selects the sort column for a list query.
type Order struct {
	Key  string
	Desc bool
}

// Repository is the store contract shared by every entity table. Column names
// are passed as clause columns so callers cannot inject SQL through them.
type Repository[T any] struct {
	db *gorm.DB
}

func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

func (r *Repository[T]) Create(ctx context.Context, record *T) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// List returns every record sorted by order. A limit <= 0 means no limit.
func (r *Repository[T]) List(ctx context.Context, order Order, limit int) ([]T, error) {
	var records []T
	query := r.db.WithContext(ctx).Order(orderBy(order))
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

func (r *Repository[T]) FindByField(ctx context.Context, field string, value interface{}, order Order) ([]T, error) {
	var records []T
	err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: field}, Value: value}).
		Order(orderBy(order)).
		Find(&records).Error
	return records, err
}

// FindOne returns gorm.ErrRecordNotFound when nothing matches.
func (r *Repository[T]) FindOne(ctx context.Context, field string, value interface{}) (*T, error) {
	var record T
	err := r.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: field}, Value: value}).
		Take(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository[T]) Get(ctx context.Context, id uint) (*T, error) {
	var record T
	if err := r.db.WithContext(ctx).Take(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository[T]) Exists(ctx context.Context, field string, value interface{}) (bool, error) {
	_, err := r.FindOne(ctx, field, value)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update applies a partial patch. It returns gorm.ErrRecordNotFound when no
// row has the id.
func (r *Repository[T]) Update(ctx context.Context, id uint, patch map[string]interface{}) error {
	var model T
	result := r.db.WithContext(ctx).Model(&model).Where("id = ?", id).Updates(patch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete hard-deletes by id. It returns gorm.ErrRecordNotFound when no row
// has the id.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	var model T
	result := r.db.WithContext(ctx).Delete(&model, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func orderBy(o Order) clause.OrderByColumn {
	key := o.Key
	if key == "" {
		key = "id"
	}
	return clause.OrderByColumn{Column: clause.Column{Name: key}, Desc: o.Desc}
}
