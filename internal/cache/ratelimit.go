package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitTokenPrefix keys the bucket of one API token.
	rateLimitTokenPrefix = "ratelimit:token:"
	// rateLimitIPPrefix keys the bucket of one client address on
	// POST /api/tokens.
	rateLimitIPPrefix = "ratelimit:ip:"
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// bucket is a token bucket refilled at rate tokens per second up to burst.
type bucket struct {
	key   string
	rate  float64
	burst int
}

// refill is how long the bucket takes to gain n tokens.
func (b bucket) refill(n int64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(float64(n) / b.rate * float64(time.Second))
}

// ttl lets an idle bucket expire once it would be full again anyway.
func (b bucket) ttl() time.Duration {
	return b.refill(int64(b.burst)) + time.Second
}

// takeTokenScript refills and takes one token atomically. Times are in
// milliseconds; it returns {allowed, wait_ms, tokens_left}.
var takeTokenScript = redis.NewScript(`
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
	local tokens = tonumber(state[1]) or burst
	local ts = tonumber(state[2]) or now

	tokens = math.min(burst, tokens + math.max(0, now - ts) / 1000 * rate)

	local allowed = 0
	local wait = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		wait = math.ceil((1 - tokens) / rate * 1000)
	end

	redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'ts', tostring(now))
	redis.call('PEXPIRE', KEYS[1], ttl)

	return {allowed, wait, math.floor(tokens)}
`)

// CheckAPIRateLimit takes one request from the bucket of an API token.
// A zero rate means unlimited.
func (c *Cache) CheckAPIRateLimit(ctx context.Context, tokenID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return unlimited(burst), nil
	}
	return c.take(ctx, bucket{
		key:   rateLimitTokenPrefix + tokenID,
		rate:  float64(ratePerMinute) / 60,
		burst: max(burst, 1),
	})
}

// CheckIPRateLimit takes one request from the bucket of a client address.
// Addresses are stored hashed.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 {
		return unlimited(burst), nil
	}
	return c.take(ctx, bucket{
		key:   rateLimitIPPrefix + hashIP(ip),
		rate:  float64(ratePerSecond),
		burst: max(burst, 1),
	})
}

// take runs the bucket script. Errors are returned; the middleware decides
// to fail open.
func (c *Cache) take(ctx context.Context, b bucket) (*RateLimitResult, error) {
	now := time.Now()

	res, err := takeTokenScript.Run(ctx, c.client, []string{b.key},
		b.rate, b.burst, now.UnixMilli(), b.ttl().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	remaining := res[2]
	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Remaining:  remaining,
		ResetAt:    now.Add(b.refill(int64(b.burst) - remaining)),
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
	}, nil
}

func unlimited(burst int) *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(burst),
		ResetAt:   time.Now(),
	}
}

// hashIP keeps raw client addresses out of Redis: the first 8 bytes of
// SHA-256, hex encoded.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
