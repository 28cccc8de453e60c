package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/atinyakov/CoverCatalog/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductService defines the catalog operations required by ProductHandler.
type ProductService interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id int64) (models.Product, error)
	Create(ctx context.Context, fields models.ProductPatch) (models.Product, error)
	Update(ctx context.Context, id int64, fields models.ProductPatch) (models.Product, error)
	Delete(ctx context.Context, id int64) (models.Product, error)
}

// ProductHandler handles the /api/products endpoints.
type ProductHandler struct {
	ProductService ProductService
	Logger         *zap.Logger
}

// ProductView is a product as returned to clients.
type ProductView struct {
	models.Product
	FormattedPrice string `json:"formatted_price"`
}

func viewOf(p models.Product) ProductView {
	return ProductView{Product: p, FormattedPrice: models.FormatPrice(p.Price)}
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.ProductService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, viewOf(p))
	}
	writeJSON(w, http.StatusOK, views)
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, err := h.ProductService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := h.decodePatch(w, r)
	if !ok {
		return
	}
	p, err := h.ProductService.Create(r.Context(), fields)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.logger().Info("product created", zap.Int64("id", p.ID))
	writeJSON(w, http.StatusCreated, viewOf(p))
}

// Update handles PUT /api/products/{id}. Only the fields present in the
// body are changed.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	fields, ok := h.decodePatch(w, r)
	if !ok {
		return
	}
	p, err := h.ProductService.Update(r.Context(), id, fields)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.logger().Info("product updated", zap.Int64("id", p.ID))
	writeJSON(w, http.StatusOK, viewOf(p))
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, err := h.ProductService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.logger().Info("product deleted", zap.Int64("id", p.ID))
	writeJSON(w, http.StatusOK, struct {
		Message        string      `json:"message"`
		DeletedProduct ProductView `json:"deleted_product"`
	}{
		Message:        "Product deleted successfully",
		DeletedProduct: viewOf(p),
	})
}

func (h *ProductHandler) decodePatch(w http.ResponseWriter, r *http.Request) (models.ProductPatch, bool) {
	var fields models.ProductPatch
	if err := decodeJSON(r, &fields); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Reason)
		} else {
			writeError(w, http.StatusBadRequest, msgBadJSON)
		}
		return fields, false
	}
	return fields, true
}

func (h *ProductHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// productID parses the {id} URL parameter. Ids that are not non-negative
// integers cannot exist, so they are reported as not found.
func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusNotFound, msgNotFound)
		return 0, false
	}
	return id, true
}
