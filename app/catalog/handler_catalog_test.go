package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mytheresa/go-catalog-query/models"
	"github.com/mytheresa/go-catalog-query/query"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// --- Mock Repos ---

type MockProductRepo struct {
	SourceProducts []models.Product
	Err            error
	StoreCount     int64

	// Fields to capture call arguments
	loads        int
	lastCalledID uint
}

func (m *MockProductRepo) Load(ctx context.Context) ([]models.Product, error) {
	m.loads++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Product(nil), m.SourceProducts...), nil
}

func (m *MockProductRepo) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	m.lastCalledID = id

	if m.Err != nil {
		return nil, m.Err
	}

	for _, p := range m.SourceProducts {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *MockProductRepo) Count(ctx context.Context) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.StoreCount, nil
}

type MockCategoryRepo struct {
	Categories []models.Category
	Err        error
}

func (m *MockCategoryRepo) Load(ctx context.Context) ([]models.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Categories, nil
}

// --- Helpers ---

func ref(id uint) *uint { return &id }

func newTestProduct(id uint, name string, categoryID *uint, price string, stock int) models.Product {
	return models.Product{
		ID:           id,
		Name:         name,
		CategoryID:   categoryID,
		UnitPrice:    decimal.RequireFromString(price),
		UnitsInStock: stock,
	}
}

func testCategories() []models.Category {
	return []models.Category{
		{ID: 1, Name: "Beverages"},
		{ID: 2, Name: "Condiments"},
	}
}

func testProducts() []models.Product {
	return []models.Product{
		newTestProduct(1, "Chai", ref(1), "18.00", 39),
		newTestProduct(2, "Chang", ref(1), "19.00", 17),
		newTestProduct(3, "Aniseed Syrup", ref(2), "10.00", 13),
		newTestProduct(24, "Guaraná Fantástica", ref(1), "4.50", 20),
		newTestProduct(90, "Loose Leaf", nil, "7.25", 5),
	}
}

func responseIDs(resp Response) []uint {
	out := make([]uint, len(resp.Products))
	for i, p := range resp.Products {
		out[i] = p.ID
	}
	return out
}

// --- Tests ---

func TestHandleGet(t *testing.T) {
	testCases := []struct {
		name               string
		url                string
		mockRepoSetup      func() *MockProductRepo
		categoryErr        error
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Default pagination, price descending",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: testProducts()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, 5, resp.Total)
				assert.Equal(t, []uint{2, 1, 3, 90, 24}, responseIDs(resp))
				assert.Equal(t, "19.00", resp.Products[0].Price)
				assert.Equal(t, "Beverages", resp.Products[0].Category.Name)
				assert.Nil(t, resp.Products[3].Category)
			},
		},
		{
			name: "Filter by price",
			url:  "/products?price_lt=10",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: testProducts()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, 2, resp.Total)
				assert.Equal(t, []uint{90, 24}, responseIDs(resp))
			},
		},
		{
			name: "Filter by category, case insensitive",
			url:  "/products?category=beverages",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: testProducts()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, []uint{2, 1, 24}, responseIDs(resp))
			},
		},
		{
			name: "Category and price",
			url:  "/products?category=Beverages&price_lt=18.5",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: testProducts()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, []uint{1, 24}, responseIDs(resp))
			},
		},
		{
			name: "Pagination with offset and limit",
			url:  "/products?offset=1&limit=2",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: testProducts()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, 5, resp.Total)
				assert.Equal(t, []uint{1, 3}, responseIDs(resp))
			},
		},
		{
			name: "Limit below minimum is clamped to 1",
			url:  "/products?limit=0",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: testProducts()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Len(t, resp.Products, 1)
			},
		},
		{
			name: "Offset past the end",
			url:  "/products?offset=50",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: testProducts()}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Response
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, 5, resp.Total)
				assert.Empty(t, resp.Products)
			},
		},
		{
			name: "Invalid price filter",
			url:  "/products?price_lt=cheap",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: testProducts()}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
				assert.Equal(t, "Invalid price_lt", errResp["error"])
			},
		},
		{
			name: "Store unavailable",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("db connection lost")}
			},
			expectedStatusCode: http.StatusServiceUnavailable,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
				assert.Equal(t, "Failed to load products", errResp["error"])
			},
		},
		{
			name: "Categories unavailable",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: testProducts()}
			},
			categoryErr:        query.Unavailable(errors.New("timeout")),
			expectedStatusCode: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			categoryRepo := &MockCategoryRepo{Categories: testCategories(), Err: tc.categoryErr}
			handler := NewCatalogHandler(mockRepo, categoryRepo, time.Second)
			req := httptest.NewRequest("GET", tc.url, nil)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGet(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}

func TestHandleGetJoined(t *testing.T) {
	mockRepo := &MockProductRepo{SourceProducts: append(testProducts(), newTestProduct(99, "Orphan", ref(42), "1.00", 1))}
	handler := NewCatalogHandler(mockRepo, &MockCategoryRepo{Categories: testCategories()}, time.Second)

	rec := httptest.NewRecorder()
	handler.HandleGetJoined(rec, httptest.NewRequest("GET", "/products/joined", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var rows []JoinedProduct
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	assert.Equal(t, []JoinedProduct{
		{ProductID: 1, ProductName: "Chai", CategoryName: "Beverages"},
		{ProductID: 2, ProductName: "Chang", CategoryName: "Beverages"},
		{ProductID: 24, ProductName: "Guaraná Fantástica", CategoryName: "Beverages"},
		{ProductID: 3, ProductName: "Aniseed Syrup", CategoryName: "Condiments"},
	}, rows)
}

func TestHandleGetStats(t *testing.T) {
	testCases := []struct {
		name               string
		repo               *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Aggregates",
			repo: &MockProductRepo{
				StoreCount: 2,
				SourceProducts: []models.Product{
					newTestProduct(1, "Chai", ref(1), "18.00", 39),
					{ID: 2, Name: "Chang", CategoryID: ref(1), UnitPrice: decimal.RequireFromString("19.00"), UnitsInStock: 17, UnitsOnOrder: 40, Discontinued: true},
				},
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var stats Stats
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
				assert.Equal(t, int64(2), stats.StoreCount)
				assert.Equal(t, 2, stats.Count)
				assert.Equal(t, 1, stats.Discontinued)
				assert.Equal(t, 56, stats.UnitsInStock)
				assert.Equal(t, 40, stats.UnitsOnOrder)
				if assert.NotNil(t, stats.HighestPrice) {
					assert.Equal(t, "19.00", *stats.HighestPrice)
				}
				if assert.NotNil(t, stats.AveragePrice) {
					assert.Equal(t, "18.50", *stats.AveragePrice)
				}
				assert.Equal(t, "1025.00", stats.StockValue)
			},
		},
		{
			name:               "Empty catalog",
			repo:               &MockProductRepo{},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var stats Stats
				assert.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
				assert.Equal(t, 0, stats.Count)
				assert.Nil(t, stats.HighestPrice)
				assert.Nil(t, stats.AveragePrice)
				assert.Equal(t, "0.00", stats.StockValue)
			},
		},
		{
			name:               "Store unavailable",
			repo:               &MockProductRepo{Err: query.Unavailable(errors.New("db down"))},
			expectedStatusCode: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewCatalogHandler(tc.repo, &MockCategoryRepo{}, time.Second)
			rec := httptest.NewRecorder()

			handler.HandleGetStats(rec, httptest.NewRequest("GET", "/products/stats", nil))

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.expectedStatusCode == http.StatusOK {
				assert.Equal(t, 1, tc.repo.loads, "aggregates must share one load")
			}
		})
	}
}
