package models

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrInvalidProduct is returned when a product breaks a catalog invariant.
var ErrInvalidProduct = errors.New("invalid product")

// Product represents a product in the catalog.
// CategoryID is nullable; when set it must reference an existing category.
type Product struct {
	ID           uint            `gorm:"primaryKey"`
	Name         string          `gorm:"size:40;not null;index"`
	CategoryID   *uint           `gorm:"index"`
	Category     *Category       `gorm:"foreignKey:CategoryID"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	UnitsInStock int             `gorm:"not null;default:0"`
	UnitsOnOrder int             `gorm:"not null;default:0"`
	Discontinued bool            `gorm:"not null;default:false"`
}

func (p *Product) TableName() string {
	return "products"
}

// Validate checks the value invariants of a product.
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return errors.Wrap(ErrInvalidProduct, "name is empty")
	case p.UnitPrice.IsNegative():
		return errors.Wrapf(ErrInvalidProduct, "%s: unit price %s is negative", p.Name, p.UnitPrice)
	case p.UnitsInStock < 0:
		return errors.Wrapf(ErrInvalidProduct, "%s: units in stock %d is negative", p.Name, p.UnitsInStock)
	case p.UnitsOnOrder < 0:
		return errors.Wrapf(ErrInvalidProduct, "%s: units on order %d is negative", p.Name, p.UnitsOnOrder)
	}
	return nil
}

// BeforeSave rejects products that break Validate.
func (p *Product) BeforeSave(*gorm.DB) error {
	return p.Validate()
}

// StockValue is the unit price times the units in stock.
func (p Product) StockValue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.UnitsInStock)))
}
