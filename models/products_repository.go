package models

import (
	"context"

	"github.com/mytheresa/go-catalog-query/query"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

type ProductFilters struct {
	CategoryName  string
	PriceLessThan *float64
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// Load returns every product ordered by id, without relations.
// It makes the repository a query.Source.
func (r *ProductsRepository) Load(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, query.Unavailable(errors.Wrap(err, "load products"))
	}
	return products, nil
}

func (r *ProductsRepository) GetAllProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Order("id").
		Find(&products).Error; err != nil {
		return nil, query.Unavailable(errors.Wrap(err, "load products"))
	}
	return products, nil
}

func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, query.Unavailable(errors.Wrapf(err, "load product %d", id))
	}
	return &product, nil
}

// Count asks the store for the number of products without loading them.
func (r *ProductsRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Product{}).Count(&total).Error; err != nil {
		return 0, query.Unavailable(errors.Wrap(err, "count products"))
	}
	return total, nil
}

func (r *ProductsRepository) CountDiscontinued(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("discontinued = ?", true).
		Count(&total).Error; err != nil {
		return 0, query.Unavailable(errors.Wrap(err, "count discontinued products"))
	}
	return total, nil
}

// filtered applies filters and the price-descending order, ties by id.
func (r *ProductsRepository) filtered(tx *gorm.DB, filters ProductFilters) *gorm.DB {
	tx = tx.Model(&Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id")

	if filters.CategoryName != "" {
		tx = tx.Where("categories.name = ?", filters.CategoryName)
	}
	if filters.PriceLessThan != nil {
		tx = tx.Where("products.unit_price < ?", *filters.PriceLessThan)
	}
	return tx.Order("products.unit_price DESC").Order("products.id")
}

// GetFilteredProducts runs the filter and sort in the store. A limit of zero or less means no limit.
func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	q := r.filtered(r.db.WithContext(ctx), filters)

	// Count total after filtering
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, query.Unavailable(errors.Wrap(err, "count filtered products"))
	}

	if limit <= 0 {
		limit = -1
	}
	if err := q.Preload("Category").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, query.Unavailable(errors.Wrap(err, "load filtered products"))
	}

	return products, total, nil
}

// FilteredProductsSQL returns the SQL GetFilteredProducts would run, without running it.
func (r *ProductsRepository) FilteredProductsSQL(filters ProductFilters) string {
	return r.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return r.filtered(tx, filters).Find(&[]Product{})
	})
}

var _ query.Source[Product] = (*ProductsRepository)(nil)
