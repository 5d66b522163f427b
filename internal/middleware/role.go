package middleware

import (
	"net/http"

	"github.com/santinisystems/catalog/internal/auth"
)

// RequireRole returns middleware that admits callers holding any of the
// given roles. Must be applied after Auth middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeAuthError(w)
				return
			}

			for _, role := range roles {
				if authCtx.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeForbidden(w)
		})
	}
}

// writeForbidden writes a 403 hydra:Error.
func writeForbidden(w http.ResponseWriter) {
	writeHydraError(w, http.StatusForbidden, "Access Denied.")
}
