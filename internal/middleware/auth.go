package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/santinisystems/catalog/internal/auth"
	"github.com/santinisystems/catalog/internal/metrics"
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/repository"
)

// TokenHeader carries the API token on every authenticated request.
const TokenHeader = "X-API-Token"

// lastUsedTimeout bounds the background last_used_at update.
const lastUsedTimeout = 5 * time.Second

// TokenStore resolves token digests. *repository.Repository satisfies it.
type TokenStore interface {
	GetAuthByTokenHash(ctx context.Context, tokenHash string) (*model.APIToken, *model.User, error)
	UpdateAPITokenLastUsed(ctx context.Context, id string) error
}

// AuthCache caches resolved auth contexts. *cache.Cache satisfies it.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Store   TokenStore
	Cache   AuthCache // optional
	Metrics metrics.Recorder
}

// Auth returns a middleware that authenticates API requests.
// It reads the token from the x-api-token header, resolves it to a user,
// and injects the auth context into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fail := func(reason string) {
				cfg.Metrics.IncAuthFailure(reason)
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
			}

			raw := r.Header.Get(TokenHeader)
			if raw == "" {
				fail("missing_token")
				return
			}

			token, err := auth.NormalizeToken(raw)
			if err != nil {
				fail("invalid_format")
				return
			}

			tokenHash := auth.HashToken(token)
			cacheKey := auth.CacheKey(tokenHash)

			// Check cache first; a cache outage falls through to the store.
			if cfg.Cache != nil {
				authCtx, err := cfg.Cache.GetAuthContext(r.Context(), cacheKey)
				if err != nil {
					cfg.Logger.Warn("auth cache read failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				if authCtx != nil && !expired(authCtx.ExpiresAt) {
					cfg.Logger.Debug("authentication successful",
						slog.String("token_id", authCtx.TokenID),
						slog.Int64("user_id", authCtx.UserID),
						slog.Bool("cache_hit", true),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), authCtx)))
					return
				}
			}

			apiToken, user, err := cfg.Store.GetAuthByTokenHash(r.Context(), tokenHash)
			if err != nil {
				if errors.Is(err, repository.ErrAPITokenNotFound) {
					fail("invalid_token")
					return
				}
				// Not a credential failure: the client may retry the same token.
				cfg.Logger.Error("database error during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeHydraError(w, http.StatusServiceUnavailable, "Service Unavailable")
				return
			}

			if apiToken.IsExpired() {
				fail("expired_token")
				return
			}

			authCtx := &model.AuthContext{
				TokenID:   apiToken.ID,
				UserID:    user.ID,
				Email:     user.Email,
				Roles:     user.EffectiveRoles(),
				ExpiresAt: apiToken.ExpiresAt,
			}

			if cfg.Cache != nil {
				if err := cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx); err != nil {
					cfg.Logger.Warn("auth cache write failed", slog.String("error", err.Error()))
				}
			}

			// Update last_used_at asynchronously; the request context is
			// cancelled once the response is written.
			go func(id string) {
				ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), lastUsedTimeout)
				defer cancel()
				if err := cfg.Store.UpdateAPITokenLastUsed(ctx, id); err != nil {
					cfg.Logger.Warn("failed to update token last_used_at",
						slog.String("token_id", id),
						slog.String("error", err.Error()),
					)
				}
			}(apiToken.ID)

			cfg.Logger.Info("authentication successful",
				slog.String("token_id", authCtx.TokenID),
				slog.Int64("user_id", authCtx.UserID),
				slog.String("ip", r.RemoteAddr),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.Bool("cache_hit", false),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), authCtx)))
		})
	}
}

func expired(expiresAt *time.Time) bool {
	return expiresAt != nil && !expiresAt.After(time.Now())
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Invalid credentials."}`))
}
