// Package fixtures holds the Northwind sample catalog and seeds it into a store.
package fixtures

import (
	"context"
	_ "embed"

	"github.com/mytheresa/go-catalog-query/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed northwind.yaml
var northwind []byte

type categoryRecord struct {
	ID          uint   `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type productRecord struct {
	ID           uint   `yaml:"id"`
	Name         string `yaml:"name"`
	CategoryID   *uint  `yaml:"category_id"`
	UnitPrice    string `yaml:"unit_price"`
	UnitsInStock int    `yaml:"units_in_stock"`
	UnitsOnOrder int    `yaml:"units_on_order"`
	Discontinued bool   `yaml:"discontinued"`
}

type document struct {
	Categories []categoryRecord `yaml:"categories"`
	Products   []productRecord  `yaml:"products"`
}

// Dataset is a decoded catalog ready to be inserted.
type Dataset struct {
	Categories []models.Category
	Products   []models.Product
}

// Northwind decodes the embedded sample catalog.
func Northwind() (*Dataset, error) {
	return Parse(northwind)
}

// Parse decodes a catalog document and checks every product invariant,
// including that each category reference points at a listed category.
func Parse(data []byte) (*Dataset, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	ds := &Dataset{
		Categories: make([]models.Category, 0, len(doc.Categories)),
		Products:   make([]models.Product, 0, len(doc.Products)),
	}
	known := make(map[uint]bool, len(doc.Categories))
	for _, c := range doc.Categories {
		if known[c.ID] {
			return nil, errors.Errorf("duplicate category id %d", c.ID)
		}
		known[c.ID] = true
		ds.Categories = append(ds.Categories, models.Category{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
		})
	}

	seen := make(map[uint]bool, len(doc.Products))
	for _, p := range doc.Products {
		if seen[p.ID] {
			return nil, errors.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = true

		price, err := decimal.NewFromString(p.UnitPrice)
		if err != nil {
			return nil, errors.Wrapf(err, "product %d: unit price", p.ID)
		}
		if p.CategoryID != nil && !known[*p.CategoryID] {
			return nil, errors.Errorf("product %d: unknown category %d", p.ID, *p.CategoryID)
		}
		product := models.Product{
			ID:           p.ID,
			Name:         p.Name,
			CategoryID:   p.CategoryID,
			UnitPrice:    price,
			UnitsInStock: p.UnitsInStock,
			UnitsOnOrder: p.UnitsOnOrder,
			Discontinued: p.Discontinued,
		}
		if err := product.Validate(); err != nil {
			return nil, err
		}
		ds.Products = append(ds.Products, product)
	}
	return ds, nil
}

// Seed migrates the schema and inserts ds in one transaction.
// A store that already holds categories is left untouched and reported as not seeded.
func Seed(ctx context.Context, db *gorm.DB, ds *Dataset) (bool, error) {
	if err := models.Migrate(db); err != nil {
		return false, err
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&models.Category{}).Count(&existing).Error; err != nil {
		return false, errors.Wrap(err, "count categories")
	}
	if existing > 0 {
		zap.L().Info("catalog already seeded", zap.Int64("categories", existing))
		return false, nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(ds.Categories) > 0 {
			if err := tx.Omit("Products").Create(&ds.Categories).Error; err != nil {
				return errors.Wrap(err, "insert categories")
			}
		}
		if len(ds.Products) > 0 {
			if err := tx.Omit("Category").Create(&ds.Products).Error; err != nil {
				return errors.Wrap(err, "insert products")
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	zap.L().Info("catalog seeded",
		zap.Int("categories", len(ds.Categories)),
		zap.Int("products", len(ds.Products)))
	return true, nil
}
