package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/santinisystems/catalog/internal/model"
)

// Common errors for API token repository operations.
var (
	ErrAPITokenNotFound = errors.New("API token not found")
)

// CreateAPIToken inserts a new API token. Only the hash is stored.
func (r *Repository) CreateAPIToken(ctx context.Context, token *model.APIToken) error {
	query := `
		INSERT INTO api_tokens (id, user_id, token_hash, name, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.Name,
		token.ExpiresAt,
		token.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create API token: %w", err)
	}

	return nil
}

// GetAuthByTokenHash resolves a token hash to the token and the user it
// belongs to. Used on every authenticated request that misses the cache.
func (r *Repository) GetAuthByTokenHash(ctx context.Context, tokenHash string) (*model.APIToken, *model.User, error) {
	query := `
		SELECT t.id, t.user_id, t.token_hash, t.name, t.expires_at, t.last_used_at, t.created_at,
		       u.id, u.email, u.roles, u.password_hash, u.created_at
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1
	`

	var token model.APIToken
	var user model.User
	var roles []string

	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Name,
		&token.ExpiresAt,
		&token.LastUsedAt,
		&token.CreatedAt,
		&user.ID,
		&user.Email,
		pq.Array(&roles),
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrAPITokenNotFound
		}
		return nil, nil, fmt.Errorf("failed to get API token: %w", err)
	}

	user.Roles = roles
	return &token, &user, nil
}

// UpdateAPITokenLastUsed updates the last_used_at timestamp.
// Should be called asynchronously after successful authentication.
func (r *Repository) UpdateAPITokenLastUsed(ctx context.Context, id string) error {
	query := `
		UPDATE api_tokens
		SET last_used_at = $2
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update API token last used: %w", err)
	}

	return nil
}
