package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/santinisystems/catalog/internal/handler/dto"
	"github.com/santinisystems/catalog/internal/repository"
	"github.com/santinisystems/catalog/internal/service"
)

// ManufacturerHandler handles HTTP requests for manufacturer operations.
type ManufacturerHandler struct {
	svc    *service.CatalogService
	logger *slog.Logger
}

// NewManufacturerHandler creates a new ManufacturerHandler.
func NewManufacturerHandler(svc *service.CatalogService, logger *slog.Logger) *ManufacturerHandler {
	return &ManufacturerHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/manufacturers.
func (h *ManufacturerHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	list, err := h.svc.ListManufacturers(r.Context(), manufacturerFilter(r), page)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	view := dto.NewCollectionView(dto.ManufacturersPath, r.URL.Query(), pageInfo(list.Page))
	writeJSONLD(w, http.StatusOK, dto.ToManufacturerCollection(list, view))
}

// manufacturerFilter reads search and order parameters. Unknown order
// directions are ignored.
func manufacturerFilter(r *http.Request) repository.ManufacturerFilter {
	query := r.URL.Query()

	filter := repository.ManufacturerFilter{
		Name:        query.Get("name"),
		Description: query.Get("description"),
		CountryCode: query.Get("countryCode"),
	}
	if filter.CountryCode == "" {
		filter.CountryCode = query.Get("manufacturer.countryCode")
	}

	order := query.Get("order[listDate]")
	if order == "" {
		order = query.Get("order[issueDate]")
	}
	switch strings.ToLower(order) {
	case repository.SortAsc:
		filter.ListDateOrder = repository.SortAsc
	case repository.SortDesc:
		filter.ListDateOrder = repository.SortDesc
	}

	return filter
}

// Get handles GET /api/manufacturers/{id}.
func (h *ManufacturerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := dto.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	m, err := h.svc.GetManufacturer(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSONLD(w, http.StatusOK, dto.ToManufacturerResponse(m))
}

// Create handles POST /api/manufacturers.
func (h *ManufacturerHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	input, err := dto.DecodeManufacturerWrite(body)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	m, err := h.svc.CreateManufacturer(r.Context(), input)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("manufacturer_created", "manufacturer_id", m.ID)

	w.Header().Set("Location", dto.ManufacturerIRI(m.ID))
	writeJSONLD(w, http.StatusCreated, dto.ToManufacturerResponse(m))
}

// Update handles PUT and PATCH /api/manufacturers/{id}.
func (h *ManufacturerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := dto.ParseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	input, err := dto.DecodeManufacturerWrite(body)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	m, err := h.svc.UpdateManufacturer(r.Context(), id, input)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("manufacturer_updated", "manufacturer_id", m.ID)

	writeJSONLD(w, http.StatusOK, dto.ToManufacturerResponse(m))
}
