package query

import (
	"cmp"
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// Number is any built-in integer or floating point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Count returns the number of rows in q.
func Count[T any](ctx context.Context, q *Query[T]) (int, error) {
	items, err := q.Materialize(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// CountWhere returns the number of rows in q satisfying pred.
func CountWhere[T any](ctx context.Context, q *Query[T], pred func(T) bool) (int, error) {
	return Count(ctx, q.Filter(pred))
}

// Max returns the largest selected value. It fails with ErrEmptySet when q has no rows.
func Max[T any, K cmp.Ordered](ctx context.Context, q *Query[T], sel func(T) K) (K, error) {
	var best K
	items, err := q.Materialize(ctx)
	if err != nil {
		return best, err
	}
	if len(items) == 0 {
		return best, ErrEmptySet
	}
	best = sel(items[0])
	for _, item := range items[1:] {
		best = max(best, sel(item))
	}
	return best, nil
}

// MaxDecimal is Max for decimal values.
func MaxDecimal[T any](ctx context.Context, q *Query[T], sel func(T) decimal.Decimal) (decimal.Decimal, error) {
	items, err := q.Materialize(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(items) == 0 {
		return decimal.Zero, ErrEmptySet
	}
	best := sel(items[0])
	for _, item := range items[1:] {
		if v := sel(item); v.GreaterThan(best) {
			best = v
		}
	}
	return best, nil
}

// Sum adds the selected values. An empty q sums to zero.
func Sum[T any, N Number](ctx context.Context, q *Query[T], sel func(T) N) (N, error) {
	var total N
	items, err := q.Materialize(ctx)
	if err != nil {
		return total, err
	}
	for _, item := range items {
		total += sel(item)
	}
	return total, nil
}

// SumDecimal adds the selected decimal values. An empty q sums to zero.
func SumDecimal[T any](ctx context.Context, q *Query[T], sel func(T) decimal.Decimal) (decimal.Decimal, error) {
	items, err := q.Materialize(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return sumDecimal(items, sel), nil
}

// Average returns sum/count of the selected values without rounding.
// It fails with ErrEmptySet when q has no rows.
func Average[T any](ctx context.Context, q *Query[T], sel func(T) decimal.Decimal) (decimal.Decimal, error) {
	items, err := q.Materialize(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(items) == 0 {
		return decimal.Zero, ErrEmptySet
	}
	return sumDecimal(items, sel).Div(decimal.NewFromInt(int64(len(items)))), nil
}

func sumDecimal[T any](items []T, sel func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(sel(item))
	}
	return total
}
