package report

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/mytheresa/go-catalog-query/app/queries"
	"github.com/mytheresa/go-catalog-query/models"
	"github.com/mytheresa/go-catalog-query/query"
	"github.com/pkg/errors"
)

// ErrMismatch means a store-side query disagreed with its in-process counterpart.
var ErrMismatch = errors.New("store and in-process results differ")

// Store runs the same queries inside the database.
type Store interface {
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	CountDiscontinued(ctx context.Context) (int64, error)
	GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
}

type GroupedStore interface {
	GetWithProducts(ctx context.Context) ([]models.Category, error)
}

type check struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// Verify runs each query both in the store and in process and prints whether they agree.
// Product order inside a category is not compared since store collations differ.
func (r *Reporter) Verify(ctx context.Context, store Store, grouped GroupedStore) error {
	checks := []check{
		{"filter and sort", func(ctx context.Context) (string, error) { return r.verifyFilter(ctx, store) }},
		{"join categories and products", func(ctx context.Context) (string, error) { return r.verifyJoin(ctx, store) }},
		{"group join categories and products", func(ctx context.Context) (string, error) { return r.verifyGroupJoin(ctx, grouped) }},
		{"discontinued count", func(ctx context.Context) (string, error) { return r.verifyDiscontinued(ctx, store) }},
	}

	failed := 0
	for _, c := range checks {
		diff, err := c.run(ctx)
		if err != nil {
			return errors.Wrapf(err, "verify %s", c.name)
		}
		status := "ok"
		if diff != "" {
			failed++
			status = "mismatch: " + diff
		}
		fmt.Fprintf(r.out, "%-36s %s\n", c.name, status)
	}

	if failed > 0 {
		return errors.Wrapf(ErrMismatch, "%d of %d checks", failed, len(checks))
	}
	return nil
}

func productIDs(products []models.Product) []uint {
	out := make([]uint, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func (r *Reporter) verifyFilter(ctx context.Context, store Store) (string, error) {
	limit := r.opts.PriceThreshold.InexactFloat64()
	stored, total, err := store.GetFilteredProducts(ctx, 0, 0, models.ProductFilters{PriceLessThan: &limit})
	if err != nil {
		return "", err
	}

	rows, err := queries.CheaperThan(r.productQuery(), r.opts.PriceThreshold).Materialize(ctx)
	if err != nil {
		return "", err
	}
	local := make([]uint, len(rows))
	for i, p := range rows {
		local[i] = p.ProductID
	}

	switch {
	case int(total) != len(stored):
		return fmt.Sprintf("store counted %d but returned %d rows", total, len(stored)), nil
	case !slices.Equal(productIDs(stored), local):
		return fmt.Sprintf("store %v, in process %v", productIDs(stored), local), nil
	}
	return "", nil
}

func (r *Reporter) verifyJoin(ctx context.Context, store Store) (string, error) {
	stored, err := store.GetAllProducts(ctx)
	if err != nil {
		return "", err
	}
	want := make(map[uint]string, len(stored))
	for _, p := range stored {
		if p.Category != nil {
			want[p.ID] = p.Category.Name
		}
	}

	rows, err := queries.ProductsWithCategory(r.categoryQuery(), r.productQuery(), query.OnDangling(warnDangling)).
		Materialize(ctx)
	if err != nil {
		return "", err
	}
	got := make(map[uint]string, len(rows))
	for _, row := range rows {
		got[row.ProductID] = row.CategoryName
	}

	if !maps.Equal(want, got) {
		return fmt.Sprintf("store joined %d products, in process %d", len(want), len(got)), nil
	}
	return "", nil
}

func (r *Reporter) verifyGroupJoin(ctx context.Context, grouped GroupedStore) (string, error) {
	stored, err := grouped.GetWithProducts(ctx)
	if err != nil {
		return "", err
	}
	groups, err := queries.CategoriesWithProducts(r.categoryQuery(), r.productQuery()).Materialize(ctx)
	if err != nil {
		return "", err
	}

	if len(stored) != len(groups) {
		return fmt.Sprintf("store has %d categories, in process %d", len(stored), len(groups)), nil
	}
	for i, c := range stored {
		g := groups[i]
		want := slices.Sorted(slices.Values(productIDs(c.Products)))
		got := slices.Sorted(slices.Values(productIDs(g.Products)))
		if c.ID != g.CategoryID || !slices.Equal(want, got) {
			return fmt.Sprintf("category %s: store %v, in process %v", c.Name, want, got), nil
		}
	}
	return "", nil
}

func (r *Reporter) verifyDiscontinued(ctx context.Context, store Store) (string, error) {
	stored, err := store.CountDiscontinued(ctx)
	if err != nil {
		return "", err
	}
	local, err := query.CountWhere(ctx, r.productQuery(), func(p models.Product) bool { return p.Discontinued })
	if err != nil {
		return "", err
	}
	if int(stored) != local {
		return fmt.Sprintf("store %d, in process %d", stored, local), nil
	}
	return "", nil
}
