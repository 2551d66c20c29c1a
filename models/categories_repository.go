package models

import (
	"context"

	"github.com/mytheresa/go-catalog-query/query"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{
		db: db,
	}
}

// Load returns every category ordered by id. It makes the repository a query.Source.
func (r *CategoriesRepository) Load(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, query.Unavailable(errors.Wrap(err, "load categories"))
	}
	return categories, nil
}

// GetWithProducts returns every category with its products ordered by name.
// This is the group join done by the store.
func (r *CategoriesRepository) GetWithProducts(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("products.name")
		}).
		Order("id").
		Find(&categories).Error; err != nil {
		return nil, query.Unavailable(errors.Wrap(err, "load categories with products"))
	}
	return categories, nil
}

var _ query.Source[Category] = (*CategoriesRepository)(nil)
