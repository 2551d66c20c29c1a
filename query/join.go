package query

import (
	"context"
	"slices"
)

// JoinOption configures Join and GroupJoin.
type JoinOption func(*joinConfig)

type joinConfig struct {
	onDangling func(error)
}

// OnDangling reports every inner row whose key matches no outer row.
// The error passed to fn is a *RelationError. Dangling rows never fail the join.
func OnDangling(fn func(err error)) JoinOption {
	return func(c *joinConfig) {
		c.onDangling = fn
	}
}

// Key adapts a plain key selector for use as an inner key.
func Key[T any, K comparable](fn func(T) K) func(T) (K, bool) {
	return func(item T) (K, bool) {
		return fn(item), true
	}
}

// OptionalKey adapts a nullable key selector; nil keys match nothing.
func OptionalKey[T any, K comparable](fn func(T) *K) func(T) (K, bool) {
	return func(item T) (K, bool) {
		k := fn(item)
		if k == nil {
			var zero K
			return zero, false
		}
		return *k, true
	}
}

// Join pairs every outer row with each inner row of equal key.
// Rows without a match on the other side are dropped. Output follows outer order,
// and within one outer row, inner order.
func Join[O, I any, K comparable, R any](
	outer *Query[O],
	inner *Query[I],
	outerKey func(O) K,
	innerKey func(I) (K, bool),
	result func(O, I) R,
	opts ...JoinOption,
) *Query[R] {
	return joined(outer, inner, outerKey, innerKey, opts, func(o O, matches []I, out []R) []R {
		for _, i := range matches {
			out = append(out, result(o, i))
		}
		return out
	})
}

// GroupJoin pairs every outer row with the possibly empty slice of inner rows of equal key.
// Each group is stably sorted by order; a nil order keeps inner order.
func GroupJoin[O, I any, K comparable, R any](
	outer *Query[O],
	inner *Query[I],
	outerKey func(O) K,
	innerKey func(I) (K, bool),
	order func(a, b I) int,
	result func(O, []I) R,
	opts ...JoinOption,
) *Query[R] {
	return joined(outer, inner, outerKey, innerKey, opts, func(o O, matches []I, out []R) []R {
		group := slices.Clone(matches)
		if group == nil {
			group = []I{}
		}
		if order != nil {
			slices.SortStableFunc(group, order)
		}
		return append(out, result(o, group))
	})
}

// joined buffers both sides, hashes the inner side by key and walks the outer side once.
func joined[O, I any, K comparable, R any](
	outer *Query[O],
	inner *Query[I],
	outerKey func(O) K,
	innerKey func(I) (K, bool),
	opts []JoinOption,
	emit func(O, []I, []R) []R,
) *Query[R] {
	var cfg joinConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	timeout := max(outer.timeout, inner.timeout)
	return &Query[R]{
		timeout: timeout,
		run: func(ctx context.Context) ([]R, error) {
			outerRows, err := outer.run(ctx)
			if err != nil {
				return nil, err
			}
			innerRows, err := inner.run(ctx)
			if err != nil {
				return nil, err
			}

			index := make(map[K][]I)
			keys := make([]K, 0)
			for _, row := range innerRows {
				k, ok := innerKey(row)
				if !ok {
					continue
				}
				if _, seen := index[k]; !seen {
					keys = append(keys, k)
				}
				index[k] = append(index[k], row)
			}

			out := make([]R, 0, len(outerRows))
			matched := make(map[K]struct{}, len(index))
			for _, o := range outerRows {
				k := outerKey(o)
				matches := index[k]
				if len(matches) > 0 {
					matched[k] = struct{}{}
				}
				out = emit(o, matches, out)
			}

			if cfg.onDangling != nil {
				for _, k := range keys {
					if _, ok := matched[k]; ok {
						continue
					}
					for range index[k] {
						cfg.onDangling(&RelationError{Key: k})
					}
				}
			}
			return out, nil
		},
	}
}
