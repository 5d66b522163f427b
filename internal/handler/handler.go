// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/santinisystems/catalog/internal/handler/dto"
	"github.com/santinisystems/catalog/internal/service"
)

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("No route found for %q: Method Not Allowed", r.Method+" "+r.URL.Path))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONLD writes a JSON-LD document with the given status code.
func writeJSONLD(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", dto.ContentTypeJSONLD)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a hydra:Error document.
func writeError(w http.ResponseWriter, status int, description string) {
	writeJSONLD(w, status, dto.NewErrorResponse(description))
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		validationErr *service.ValidationError
		referenceErr  *service.ReferenceNotFoundError
		decodeErr     *dto.DecodeError
	)

	switch {
	case errors.As(err, &validationErr):
		violations := make([]dto.Violation, len(validationErr.Violations))
		for i, v := range validationErr.Violations {
			violations[i] = dto.Violation(v)
		}
		writeJSONLD(w, http.StatusUnprocessableEntity, dto.NewViolationListResponse(validationErr.Error(), violations))
	case errors.As(err, &decodeErr):
		writeError(w, http.StatusBadRequest, decodeErr.Message)
	case errors.As(err, &referenceErr):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Item not found for %q.", referenceIRI(referenceErr)))
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, "A product can only be updated by the owner")
	case errors.Is(err, service.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials."})
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrManufacturerNotFound):
		writeError(w, http.StatusNotFound, "Not Found")
	case errors.Is(err, service.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, "Page should not be less than 1")
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func referenceIRI(err *service.ReferenceNotFoundError) string {
	switch err.Field {
	case "manufacturer":
		return dto.ManufacturerIRI(err.ID)
	default:
		return err.Field + "/" + strconv.FormatInt(err.ID, 10)
	}
}

// readBody reads the request body. Oversized bodies map to 413.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Syntax error")
		return nil, false
	}
	return body, true
}

// pageParam parses the page query parameter. It defaults to 1.
func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, service.ErrInvalidPage
	}
	return page, nil
}

func pageInfo(p service.Page) dto.PageInfo {
	return dto.PageInfo{
		Number:      p.Number,
		Last:        p.LastPage(),
		HasPrevious: p.HasPrevious(),
		HasNext:     p.HasNext(),
	}
}
