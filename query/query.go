// Package query composes lazy, immutable queries over record sources.
//
// Building a query never touches the source. Filters, sorts, projections and joins
// are recorded and run only when Materialize is called.
package query

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Source loads every record of one kind.
type Source[T any] interface {
	Load(ctx context.Context) ([]T, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context) ([]T, error)

func (f SourceFunc[T]) Load(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// Query is a deferred description of a result set.
type Query[T any] struct {
	run     func(ctx context.Context) ([]T, error)
	timeout time.Duration
}

// From starts a query over src.
func From[T any](src Source[T]) *Query[T] {
	return &Query[T]{
		run: func(ctx context.Context) ([]T, error) {
			items, err := src.Load(ctx)
			if err != nil {
				return nil, Unavailable(err)
			}
			return items, nil
		},
	}
}

// FromSlice starts a query over a copy of items.
func FromSlice[T any](items []T) *Query[T] {
	owned := slices.Clone(items)
	return &Query[T]{
		run: func(context.Context) ([]T, error) {
			return slices.Clone(owned), nil
		},
	}
}

// derive builds a child query that post-processes the parent's rows.
func derive[T, R any](q *Query[T], step func([]T) ([]R, error)) *Query[R] {
	return &Query[R]{
		timeout: q.timeout,
		run: func(ctx context.Context) ([]R, error) {
			items, err := q.run(ctx)
			if err != nil {
				return nil, err
			}
			return step(items)
		},
	}
}

// Filter keeps the elements satisfying pred, in their original order.
func (q *Query[T]) Filter(pred func(T) bool) *Query[T] {
	return derive(q, func(items []T) ([]T, error) {
		out := make([]T, 0, len(items))
		for _, item := range items {
			if pred(item) {
				out = append(out, item)
			}
		}
		return out, nil
	})
}

// SortAscending orders elements by compare. Ties keep their source order.
func (q *Query[T]) SortAscending(compare func(a, b T) int) *Query[T] {
	return derive(q, func(items []T) ([]T, error) {
		sorted := slices.Clone(items)
		slices.SortStableFunc(sorted, compare)
		return sorted, nil
	})
}

// SortDescending orders elements by compare, largest first. Ties keep their source order.
func (q *Query[T]) SortDescending(compare func(a, b T) int) *Query[T] {
	return q.SortAscending(func(a, b T) int { return compare(b, a) })
}

// Skip drops the first n elements.
func (q *Query[T]) Skip(n int) *Query[T] {
	return derive(q, func(items []T) ([]T, error) {
		if n <= 0 {
			return items, nil
		}
		if n >= len(items) {
			return items[:0], nil
		}
		return items[n:], nil
	})
}

// Take keeps at most n elements.
func (q *Query[T]) Take(n int) *Query[T] {
	return derive(q, func(items []T) ([]T, error) {
		if n < 0 {
			n = 0
		}
		if n < len(items) {
			return items[:n], nil
		}
		return items, nil
	})
}

// WithTimeout bounds Materialize by d. Zero disables the bound.
func (q *Query[T]) WithTimeout(d time.Duration) *Query[T] {
	return &Query[T]{run: q.run, timeout: d}
}

// Materialize runs the query and returns its rows.
func (q *Query[T]) Materialize(ctx context.Context) ([]T, error) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, Unavailable(err)
	}
	items, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Unavailable(err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Project maps every element of q through fn.
func Project[T, R any](q *Query[T], fn func(T) R) *Query[R] {
	return derive(q, func(items []T) ([]R, error) {
		out := make([]R, len(items))
		for i, item := range items {
			out[i] = fn(item)
		}
		return out, nil
	})
}

// By returns a comparator over an ordered key.
func By[T any, K cmp.Ordered](key func(T) K) func(a, b T) int {
	return func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	}
}

// ByDecimal returns a comparator over a decimal key.
func ByDecimal[T any](key func(T) decimal.Decimal) func(a, b T) int {
	return func(a, b T) int {
		return key(a).Cmp(key(b))
	}
}
