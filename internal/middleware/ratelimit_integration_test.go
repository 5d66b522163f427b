//go:build integration

package middleware

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/santinisystems/catalog/internal/cache"
	"github.com/santinisystems/catalog/internal/testutil"
)

// TestIntegrationRateLimitConcurrency verifies the token bucket holds under
// concurrent load.
func TestIntegrationRateLimitConcurrency(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewRedisClient(t)
	limiter := cache.NewWithClient(client)

	tokenID := "test-token-concurrent"
	rpm := 10 // Low limit to trigger easily
	burst := 5

	var allowed, rejected int64

	// 20 goroutines, 3 requests each
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				result, err := limiter.CheckAPIRateLimit(ctx, tokenID, rpm, burst)
				if err != nil {
					t.Errorf("CheckAPIRateLimit error: %v", err)
					return
				}
				if result.Allowed {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}

	wg.Wait()

	t.Logf("Concurrency test: %d allowed, %d rejected", allowed, rejected)

	if allowed > int64(burst+1) {
		t.Errorf("Too many requests allowed: %d (expected <= %d)", allowed, burst+1)
	}
	if rejected == 0 {
		t.Error("Expected some requests to be rejected")
	}
}

// TestIntegrationIPRateLimitConcurrency verifies the per-IP bucket used by
// the token endpoint.
func TestIntegrationIPRateLimitConcurrency(t *testing.T) {
	ctx := context.Background()
	limiter := cache.NewWithClient(testutil.NewRedisClient(t))

	var allowed, rejected int64
	var wg sync.WaitGroup

	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.CheckIPRateLimit(ctx, "192.168.1.100", 1, 3)
			if err != nil {
				t.Errorf("CheckIPRateLimit error: %v", err)
				return
			}
			if result.Allowed {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&rejected, 1)
			}
		}()
	}

	wg.Wait()

	t.Logf("IP rate limit: %d allowed, %d rejected", allowed, rejected)

	if rejected == 0 {
		t.Error("Expected some requests to be rejected")
	}
}
