package catalog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mytheresa/go-catalog-query/app/queries"
	"github.com/mytheresa/go-catalog-query/app/respond"
	"github.com/mytheresa/go-catalog-query/models"
	"github.com/mytheresa/go-catalog-query/query"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	UnitsInStock int       `json:"units_in_stock"`
	Discontinued bool      `json:"discontinued"`
	Category     *Category `json:"category,omitempty"`
}

type JoinedProduct struct {
	ProductID    uint   `json:"product_id"`
	ProductName  string `json:"product_name"`
	CategoryName string `json:"category_name"`
}

type Stats struct {
	StoreCount   int64   `json:"store_count"`
	Count        int     `json:"count"`
	Discontinued int     `json:"discontinued"`
	HighestPrice *string `json:"highest_price"`
	UnitsInStock int     `json:"units_in_stock"`
	UnitsOnOrder int     `json:"units_on_order"`
	AveragePrice *string `json:"average_price"`
	StockValue   string  `json:"stock_value"`
}

type ProductProvider interface {
	Load(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Count(ctx context.Context) (int64, error)
}

type CategoryProvider interface {
	Load(ctx context.Context) ([]models.Category, error)
}

type CatalogHandler struct {
	repo       ProductProvider
	categories CategoryProvider
	timeout    time.Duration
}

func NewCatalogHandler(r ProductProvider, c CategoryProvider, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		repo:       r,
		categories: c,
		timeout:    timeout,
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (h *CatalogHandler) products() *query.Query[models.Product] {
	return query.From[models.Product](h.repo).WithTimeout(h.timeout)
}

func (h *CatalogHandler) categoryQuery() *query.Query[models.Category] {
	return query.From[models.Category](h.categories).WithTimeout(h.timeout)
}

func warnDangling(err error) {
	zap.L().Warn("product references a missing category", zap.Error(err))
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Parse pagination query params
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	// Parse filters
	categoryName := strings.TrimSpace(r.URL.Query().Get("category"))

	var priceFilter *decimal.Decimal
	if priceStr := r.URL.Query().Get("price_lt"); priceStr != "" {
		val, err := decimal.NewFromString(priceStr)
		if err != nil || val.IsNegative() {
			respond.Error(w, http.StatusBadRequest, "Invalid price_lt")
			return
		}
		priceFilter = &val
	}

	ctx := r.Context()
	categories, err := h.categoryQuery().Materialize(ctx)
	if err != nil {
		respond.Failure(w, r, err, "Failed to load categories")
		return
	}
	byID := make(map[uint]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	filtered := h.products()
	if priceFilter != nil {
		filtered = filtered.Filter(func(p models.Product) bool { return p.UnitPrice.LessThan(*priceFilter) })
	}
	if categoryName != "" {
		filtered = filtered.Filter(func(p models.Product) bool {
			if p.CategoryID == nil {
				return false
			}
			c, ok := byID[*p.CategoryID]
			return ok && strings.EqualFold(c.Name, categoryName)
		})
	}

	rows, err := filtered.
		SortDescending(query.ByDecimal(func(p models.Product) decimal.Decimal { return p.UnitPrice })).
		Materialize(ctx)
	if err != nil {
		respond.Failure(w, r, err, "Failed to load products")
		return
	}

	page, err := query.Project(query.FromSlice(rows).Skip(offset).Take(limit), func(p models.Product) Product {
		out := Product{
			ID:           p.ID,
			Name:         p.Name,
			Price:        money(p.UnitPrice),
			UnitsInStock: p.UnitsInStock,
			Discontinued: p.Discontinued,
		}
		if p.CategoryID != nil {
			if c, ok := byID[*p.CategoryID]; ok {
				out.Category = &Category{ID: c.ID, Name: c.Name}
			}
		}
		return out
	}).Materialize(ctx)
	if err != nil {
		respond.Failure(w, r, err, "Failed to load products")
		return
	}

	respond.JSON(w, http.StatusOK, Response{
		Total:    len(rows),
		Products: page,
	})
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 0)
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	product, err := h.repo.GetByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			respond.Error(w, http.StatusNotFound, "Product not found")
			return
		}
		respond.Failure(w, r, err, "Failed to retrieve product")
		return
	}

	response := Product{
		ID:           product.ID,
		Name:         product.Name,
		Price:        money(product.UnitPrice),
		UnitsInStock: product.UnitsInStock,
		Discontinued: product.Discontinued,
	}
	if product.Category != nil {
		response.Category = &Category{ID: product.Category.ID, Name: product.Category.Name}
	}

	respond.JSON(w, http.StatusOK, response)
}

func (h *CatalogHandler) HandleGetJoined(w http.ResponseWriter, r *http.Request) {
	joined := queries.ProductsWithCategory(h.categoryQuery(), h.products(), query.OnDangling(warnDangling))

	rows, err := query.Project(joined, func(c queries.CategorizedProduct) JoinedProduct {
		return JoinedProduct{
			ProductID:    c.ProductID,
			ProductName:  c.ProductName,
			CategoryName: c.CategoryName,
		}
	}).Materialize(r.Context())
	if err != nil {
		respond.Failure(w, r, err, "Failed to join products")
		return
	}

	respond.JSON(w, http.StatusOK, rows)
}

func (h *CatalogHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	storeCount, err := h.repo.Count(ctx)
	if err != nil {
		respond.Failure(w, r, err, "Failed to count products")
		return
	}

	summary, err := queries.Summarize(ctx, h.products())
	if err != nil {
		respond.Failure(w, r, err, "Failed to aggregate products")
		return
	}

	stats := Stats{
		StoreCount:   storeCount,
		Count:        summary.Count,
		Discontinued: summary.Discontinued,
		UnitsInStock: summary.UnitsInStock,
		UnitsOnOrder: summary.UnitsOnOrder,
		StockValue:   money(summary.StockValue),
	}
	if summary.HighestPrice != nil {
		v := money(*summary.HighestPrice)
		stats.HighestPrice = &v
	}
	if summary.AveragePrice != nil {
		v := money(*summary.AveragePrice)
		stats.AveragePrice = &v
	}

	respond.JSON(w, http.StatusOK, stats)
}
