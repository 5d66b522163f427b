package model

import (
	"slices"
	"time"
)

// APIToken is an opaque credential sent in the x-api-token header.
// Only the SHA-256 hash of the token is persisted.
type APIToken struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	TokenHash  string     `json:"-"` // Never serialize
	Name       string     `json:"name,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsExpired returns true if the token has an expiry in the past.
func (t *APIToken) IsExpired() bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(time.Now())
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	TokenID   string     `json:"token_id"`
	UserID    int64      `json:"user_id"`
	Email     string     `json:"email"`
	Roles     []string   `json:"roles"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// HasRole checks if the authenticated user holds a role.
func (a *AuthContext) HasRole(role string) bool {
	return slices.Contains(withImpliedRole(a.Roles), role)
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (a *AuthContext) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// TokenCreateRequest is the body of POST /api/tokens.
type TokenCreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// TokenCreateResponse includes the plaintext token (shown only once).
type TokenCreateResponse struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"` // Plaintext - display once only!
	ExpiresAt *time.Time `json:"expiresAt"`
}
