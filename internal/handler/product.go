package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/santinisystems/catalog/internal/auth"
	"github.com/santinisystems/catalog/internal/handler/dto"
	"github.com/santinisystems/catalog/internal/service"
)

// ProductHandler handles HTTP requests for product operations.
type ProductHandler struct {
	svc    *service.CatalogService
	logger *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(svc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	list, err := h.svc.ListProducts(r.Context(), page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	view := dto.NewCollectionView(dto.ProductsPath, r.URL.Query(), pageInfo(list.Page))
	writeJSONLD(w, http.StatusOK, dto.ToProductCollection(dto.ProductsPath, list, view))
}

// ListByManufacturer handles GET /api/manufacturer/{id}/products.
func (h *ProductHandler) ListByManufacturer(w http.ResponseWriter, r *http.Request) {
	id, ok := dto.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	page, err := pageParam(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	list, err := h.svc.ListManufacturerProducts(r.Context(), id, page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	path := dto.ManufacturerProductsPath(id)
	view := dto.NewCollectionView(path, r.URL.Query(), pageInfo(list.Page))
	writeJSONLD(w, http.StatusOK, dto.ToProductCollection(path, list, view))
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := dto.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSONLD(w, http.StatusOK, dto.ToProductResponse(product))
}

// Create handles POST /api/products. The caller becomes the owner.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	input, err := dto.DecodeProductWrite(body)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	caller := auth.AuthFromContext(r.Context())
	product, err := h.svc.CreateProduct(r.Context(), caller, input)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("product_created",
		"product_id", product.ID,
		"owner_id", auth.UserIDFromContext(r.Context()),
	)

	w.Header().Set("Location", dto.ProductIRI(product.ID))
	writeJSONLD(w, http.StatusCreated, dto.ToProductResponse(product))
}

// Update handles PUT /api/products/{id}. Only attributes present in the
// body are changed.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := dto.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	input, err := dto.DecodeProductWrite(body)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	caller := auth.AuthFromContext(r.Context())
	product, err := h.svc.UpdateProduct(r.Context(), caller, id, input)
	if err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			h.logger.Warn("product_update_denied",
				"product_id", id,
				"user_id", auth.UserIDFromContext(r.Context()),
				"token_id", auth.TokenIDFromContext(r.Context()),
			)
		}
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("product_updated",
		"product_id", product.ID,
		"user_id", auth.UserIDFromContext(r.Context()),
	)

	writeJSONLD(w, http.StatusOK, dto.ToProductResponse(product))
}
