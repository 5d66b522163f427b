package middleware

import (
	"encoding/json"
	"net/http"
)

// hydraError mirrors the hydra:Error document rendered by the handlers.
type hydraError struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Title       string `json:"hydra:title"`
	Description string `json:"hydra:description"`
}

// writeHydraError writes a hydra:Error with the given status.
func writeHydraError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "application/ld+json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(hydraError{
		Context:     "/api/contexts/Error",
		Type:        "hydra:Error",
		Title:       "An error occurred",
		Description: description,
	})
}
