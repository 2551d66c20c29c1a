package query

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type category struct {
	ID   uint
	Name string
}

type product struct {
	ID         uint
	Name       string
	CategoryID *uint
	Price      decimal.Decimal
}

type joinedRow struct {
	CategoryName string
	ProductName  string
	ProductID    uint
}

type group struct {
	CategoryName string
	Products     []string
}

func ref(id uint) *uint { return &id }

func joinFixture() ([]category, []product) {
	categories := []category{
		{ID: 1, Name: "Beverages"},
		{ID: 2, Name: "Condiments"},
		{ID: 3, Name: "Produce"},
	}
	products := []product{
		{ID: 1, Name: "Chai", CategoryID: ref(1)},
		{ID: 2, Name: "Chang", CategoryID: ref(1)},
		{ID: 3, Name: "Aniseed Syrup", CategoryID: ref(2)},
		{ID: 4, Name: "Orphan", CategoryID: ref(99)},
		{ID: 5, Name: "Uncategorized", CategoryID: nil},
		{ID: 6, Name: "Anchovy Paste", CategoryID: ref(2)},
	}
	return categories, products
}

func categoryID(c category) uint { return c.ID }

func productCategoryID(p product) *uint { return p.CategoryID }

func TestJoin(t *testing.T) {
	categories, products := joinFixture()

	var dangling []error
	q := Join(
		FromSlice(categories),
		FromSlice(products),
		categoryID,
		OptionalKey(productCategoryID),
		func(c category, p product) joinedRow {
			return joinedRow{CategoryName: c.Name, ProductName: p.Name, ProductID: p.ID}
		},
		OnDangling(func(err error) { dangling = append(dangling, err) }),
	)

	rows, err := q.Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []joinedRow{
		{"Beverages", "Chai", 1},
		{"Beverages", "Chang", 2},
		{"Condiments", "Aniseed Syrup", 3},
		{"Condiments", "Anchovy Paste", 6},
	}, rows)

	require.Len(t, dangling, 1)
	assert.True(t, errors.Is(dangling[0], ErrInvalidRelation))
	var relErr *RelationError
	require.True(t, errors.As(dangling[0], &relErr))
	assert.Equal(t, uint(99), relErr.Key)
}

func TestJoinCardinality(t *testing.T) {
	categories, products := joinFixture()

	expected := 0
	for _, c := range categories {
		for _, p := range products {
			if p.CategoryID != nil && *p.CategoryID == c.ID {
				expected++
			}
		}
	}

	count, err := Count(context.Background(), Join(
		FromSlice(categories),
		FromSlice(products),
		categoryID,
		OptionalKey(productCategoryID),
		func(c category, p product) joinedRow { return joinedRow{} },
	))
	require.NoError(t, err)
	assert.Equal(t, expected, count)
}

func TestJoinDuplicateOuterKeys(t *testing.T) {
	outer := []category{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}}
	inner := []product{{ID: 10, CategoryID: ref(1)}}

	rows, err := Join(
		FromSlice(outer),
		FromSlice(inner),
		categoryID,
		OptionalKey(productCategoryID),
		func(c category, p product) string { return c.Name },
	).Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, rows)
}

func TestGroupJoin(t *testing.T) {
	categories, products := joinFixture()

	q := GroupJoin(
		FromSlice(categories),
		FromSlice(products),
		categoryID,
		OptionalKey(productCategoryID),
		By(func(p product) string { return p.Name }),
		func(c category, matches []product) group {
			names := make([]string, len(matches))
			for i, p := range matches {
				names[i] = p.Name
			}
			return group{CategoryName: c.Name, Products: names}
		},
	)

	groups, err := q.Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []group{
		{CategoryName: "Beverages", Products: []string{"Chai", "Chang"}},
		{CategoryName: "Condiments", Products: []string{"Anchovy Paste", "Aniseed Syrup"}},
		{CategoryName: "Produce", Products: []string{}},
	}, groups)

	total := 0
	for _, g := range groups {
		total += len(g.Products)
	}
	// The orphan and the uncategorized product are excluded.
	assert.Equal(t, 4, total)
}

func TestGroupJoinKeepsInnerOrderWithoutComparator(t *testing.T) {
	categories, products := joinFixture()

	groups, err := GroupJoin(
		FromSlice(categories[1:2]),
		FromSlice(products),
		categoryID,
		OptionalKey(productCategoryID),
		nil,
		func(c category, matches []product) []uint {
			out := make([]uint, len(matches))
			for i, p := range matches {
				out[i] = p.ID
			}
			return out
		},
	).Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]uint{{3, 6}}, groups)
}

func TestJoinPropagatesSourceFailure(t *testing.T) {
	categories, _ := joinFixture()
	failing := From[product](SourceFunc[product](func(context.Context) ([]product, error) {
		return nil, errors.New("relation \"products\" does not exist")
	}))

	_, err := Join(
		FromSlice(categories),
		failing,
		categoryID,
		OptionalKey(productCategoryID),
		func(c category, p product) joinedRow { return joinedRow{} },
	).Materialize(context.Background())
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

func TestKey(t *testing.T) {
	k, ok := Key(func(c category) uint { return c.ID })(category{ID: 7})
	assert.True(t, ok)
	assert.Equal(t, uint(7), k)

	_, ok = OptionalKey(productCategoryID)(product{})
	assert.False(t, ok)
}
