package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/service"
)

// TokenHandler issues API tokens.
type TokenHandler struct {
	svc    *service.TokenService
	logger *slog.Logger
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(svc *service.TokenService, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/tokens.
func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.TokenCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Syntax error")
		return
	}

	resp, err := h.svc.IssueToken(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Warn("token_request_rejected", "reason", "invalid_credentials")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials."})
			return
		}
		h.logger.Error("token_issue_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.logger.Info("token_issued", "token_id", resp.ID)

	// Plaintext token is shown once only
	writeJSON(w, http.StatusCreated, resp)
}
