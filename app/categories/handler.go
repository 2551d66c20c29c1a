package categories

import (
	"context"
	"net/http"
	"time"

	"github.com/mytheresa/go-catalog-query/app/queries"
	"github.com/mytheresa/go-catalog-query/app/respond"
	"github.com/mytheresa/go-catalog-query/models"
	"github.com/mytheresa/go-catalog-query/query"
	"go.uber.org/zap"
)

type CategoryResponse struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	ProductCount int      `json:"product_count"`
	Products     []string `json:"products"`
}

type CategoryProvider interface {
	Load(ctx context.Context) ([]models.Category, error)
}

type ProductProvider interface {
	Load(ctx context.Context) ([]models.Product, error)
}

type CategoryHandler struct {
	repo     CategoryProvider
	products ProductProvider
	timeout  time.Duration
}

func NewCategoryHandler(r CategoryProvider, p ProductProvider, timeout time.Duration) *CategoryHandler {
	return &CategoryHandler{repo: r, products: p, timeout: timeout}
}

// HandleGetAll lists every category with its products ordered by name.
func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	groups := queries.CategoriesWithProducts(
		query.From[models.Category](h.repo).WithTimeout(h.timeout),
		query.From[models.Product](h.products).WithTimeout(h.timeout),
		query.OnDangling(func(err error) {
			zap.L().Warn("product references a missing category", zap.Error(err))
		}),
	)

	response, err := query.Project(groups, func(g queries.CategoryGroup) CategoryResponse {
		names := make([]string, len(g.Products))
		for i, p := range g.Products {
			names[i] = p.Name
		}
		return CategoryResponse{
			ID:           g.CategoryID,
			Name:         g.CategoryName,
			ProductCount: len(g.Products),
			Products:     names,
		}
	}).Materialize(r.Context())
	if err != nil {
		respond.Failure(w, r, err, "failed to fetch categories")
		return
	}

	respond.JSON(w, http.StatusOK, response)
}
