package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/santinisystems/catalog/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for auth context cache.
	authCachePrefix = "auth:ctx:"
	// authUserPrefix indexes the cached auth contexts of one user.
	authUserPrefix = "auth:user:"
	// authCacheTTL is the time-to-live for cached auth contexts.
	authCacheTTL = 5 * time.Minute
)

// CachedAuthContext represents auth context stored in Redis.
type CachedAuthContext struct {
	TokenID   string     `json:"token_id"`
	UserID    int64      `json:"user_id"`
	Email     string     `json:"email"`
	Roles     []string   `json:"roles"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func authUserKey(userID int64) string {
	return authUserPrefix + strconv.FormatInt(userID, 10)
}

// deleteUserAuthScript drops every auth context listed in a user's index,
// then the index itself.
var deleteUserAuthScript = redis.NewScript(`
	local keys = redis.call('SMEMBERS', KEYS[1])
	for _, key in ipairs(keys) do
		redis.call('DEL', ARGV[1] .. key)
	end
	redis.call('DEL', KEYS[1])
	return #keys
`)

// GetAuthContext retrieves a cached auth context by cache key.
// Returns nil if not found (cache miss).
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	key := authCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cached CachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		TokenID:   cached.TokenID,
		UserID:    cached.UserID,
		Email:     cached.Email,
		Roles:     cached.Roles,
		ExpiresAt: cached.ExpiresAt,
	}, nil
}

// SetAuthContext caches an auth context and records it in the user's index.
// The entry never outlives the token.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error {
	ttl := authTTL(auth.ExpiresAt, time.Now())
	if ttl <= 0 {
		return nil
	}

	key := authCachePrefix + cacheKey

	cached := CachedAuthContext{
		TokenID:   auth.TokenID,
		UserID:    auth.UserID,
		Email:     auth.Email,
		Roles:     auth.Roles,
		ExpiresAt: auth.ExpiresAt,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	// The index lives as long as the longest entry it lists.
	userKey := authUserKey(auth.UserID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, ttl)
		pipe.SAdd(ctx, userKey, cacheKey)
		pipe.Expire(ctx, userKey, authCacheTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache auth context: %w", err)
	}
	return nil
}

// DeleteUserAuthContexts evicts every cached auth context of a user, so
// role and credential changes apply to the next request. It returns the
// number of entries evicted.
func (c *Cache) DeleteUserAuthContexts(ctx context.Context, userID int64) (int, error) {
	n, err := deleteUserAuthScript.Run(ctx, c.client, []string{authUserKey(userID)}, authCachePrefix).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to evict auth contexts for user %d: %w", userID, err)
	}
	return n, nil
}

// authTTL caps authCacheTTL at the token's remaining lifetime.
func authTTL(expiresAt *time.Time, now time.Time) time.Duration {
	if expiresAt == nil {
		return authCacheTTL
	}
	remaining := expiresAt.Sub(now)
	if remaining < authCacheTTL {
		return remaining
	}
	return authCacheTTL
}
