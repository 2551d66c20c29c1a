// Package queries defines the catalog's named queries and their result shapes.
package queries

import (
	"context"

	"github.com/mytheresa/go-catalog-query/models"
	"github.com/mytheresa/go-catalog-query/query"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PricedProduct is the projection of the filter-and-sort query.
type PricedProduct struct {
	ProductID   uint
	ProductName string
	UnitPrice   decimal.Decimal
}

// CategorizedProduct is one row of the category/product join.
type CategorizedProduct struct {
	CategoryName string
	ProductName  string
	ProductID    uint
}

// CategoryGroup is one category with its products.
type CategoryGroup struct {
	CategoryID   uint
	CategoryName string
	Products     []models.Product
}

// Summary holds the product aggregates. HighestPrice and AveragePrice are nil
// when there are no products.
type Summary struct {
	Count        int
	Discontinued int
	HighestPrice *decimal.Decimal
	UnitsInStock int
	UnitsOnOrder int
	AveragePrice *decimal.Decimal
	StockValue   decimal.Decimal
}

func unitPrice(p models.Product) decimal.Decimal { return p.UnitPrice }

func productName(p models.Product) string { return p.Name }

func categoryID(c models.Category) uint { return c.ID }

func productCategoryID(p models.Product) *uint { return p.CategoryID }

// CheaperThan lists products priced below limit, most expensive first.
func CheaperThan(products *query.Query[models.Product], limit decimal.Decimal) *query.Query[PricedProduct] {
	sorted := products.
		Filter(func(p models.Product) bool { return p.UnitPrice.LessThan(limit) }).
		SortDescending(query.ByDecimal(unitPrice))

	return query.Project(sorted, func(p models.Product) PricedProduct {
		return PricedProduct{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.UnitPrice,
		}
	})
}

// ProductsWithCategory joins every categorized product to its category, ordered by category name.
func ProductsWithCategory(categories *query.Query[models.Category], products *query.Query[models.Product], opts ...query.JoinOption) *query.Query[CategorizedProduct] {
	joined := query.Join(
		categories,
		products,
		categoryID,
		query.OptionalKey(productCategoryID),
		func(c models.Category, p models.Product) CategorizedProduct {
			return CategorizedProduct{
				CategoryName: c.Name,
				ProductName:  p.Name,
				ProductID:    p.ID,
			}
		},
		opts...,
	)
	return joined.SortAscending(query.By(func(r CategorizedProduct) string { return r.CategoryName }))
}

// CategoriesWithProducts groups products under each category, products ordered by name.
func CategoriesWithProducts(categories *query.Query[models.Category], products *query.Query[models.Product], opts ...query.JoinOption) *query.Query[CategoryGroup] {
	return query.GroupJoin(
		categories,
		products,
		categoryID,
		query.OptionalKey(productCategoryID),
		query.By(productName),
		func(c models.Category, matches []models.Product) CategoryGroup {
			return CategoryGroup{
				CategoryID:   c.ID,
				CategoryName: c.Name,
				Products:     matches,
			}
		},
		opts...,
	)
}

// Summarize materializes products once and computes every aggregate over that snapshot.
func Summarize(ctx context.Context, products *query.Query[models.Product]) (*Summary, error) {
	rows, err := products.Materialize(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := query.FromSlice(rows)

	var s Summary
	if s.Count, err = query.Count(ctx, snapshot); err != nil {
		return nil, err
	}
	if s.Discontinued, err = query.CountWhere(ctx, snapshot, func(p models.Product) bool { return p.Discontinued }); err != nil {
		return nil, err
	}
	if s.UnitsInStock, err = query.Sum(ctx, snapshot, func(p models.Product) int { return p.UnitsInStock }); err != nil {
		return nil, err
	}
	if s.UnitsOnOrder, err = query.Sum(ctx, snapshot, func(p models.Product) int { return p.UnitsOnOrder }); err != nil {
		return nil, err
	}
	if s.StockValue, err = query.SumDecimal(ctx, snapshot, models.Product.StockValue); err != nil {
		return nil, err
	}

	highest, err := query.MaxDecimal(ctx, snapshot, unitPrice)
	switch {
	case err == nil:
		s.HighestPrice = &highest
	case !errors.Is(err, query.ErrEmptySet):
		return nil, err
	}

	average, err := query.Average(ctx, snapshot, unitPrice)
	switch {
	case err == nil:
		s.AveragePrice = &average
	case !errors.Is(err, query.ErrEmptySet):
		return nil, err
	}

	return &s, nil
}
