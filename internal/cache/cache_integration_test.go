//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/testutil"
)

func newTestCache(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	return context.Background(), NewWithClient(testutil.NewRedisClient(t))
}

func TestIntegrationCache_ProductRoundTrip(t *testing.T) {
	ctx, c := newTestCache(t)

	_, generation, err := c.GetProduct(ctx, 1)
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
	if generation != 0 {
		t.Fatalf("generation = %d, want 0", generation)
	}

	owner := int64(5)
	p := testutil.NewTestProduct(t, 2, &owner)
	p.ID = 1
	p.Manufacturer = &model.ManufacturerRef{ID: 2, Name: "Acme"}

	stored, err := c.SetProduct(ctx, p, generation)
	if err != nil || !stored {
		t.Fatalf("SetProduct: stored=%v err=%v", stored, err)
	}

	got, _, err := c.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got.Name != p.Name || got.Manufacturer.Name != "Acme" || !got.IsOwnedBy(5) {
		t.Errorf("cached product mismatch: %+v", got)
	}
	if !got.IssueDate.Equal(*p.IssueDate) {
		t.Errorf("IssueDate = %v, want %v", got.IssueDate, p.IssueDate)
	}

	if err := c.DeleteProducts(ctx, 1, 2); err != nil {
		t.Fatalf("DeleteProducts failed: %v", err)
	}
	_, generation, err = c.GetProduct(ctx, 1)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after delete, got %v", err)
	}
	if generation != 1 {
		t.Errorf("generation after delete = %d, want 1", generation)
	}
}

func TestIntegrationCache_StaleProductNotWrittenBack(t *testing.T) {
	ctx, c := newTestCache(t)

	owner := int64(5)
	stale := testutil.NewTestProduct(t, 2, &owner)
	stale.ID = 7

	// A reader observes the generation, then an update evicts the product
	// before the reader writes its row back.
	_, observed, err := c.GetProduct(ctx, 7)
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
	if err := c.DeleteProducts(ctx, 7); err != nil {
		t.Fatalf("DeleteProducts failed: %v", err)
	}

	stored, err := c.SetProduct(ctx, stale, observed)
	if err != nil {
		t.Fatalf("SetProduct failed: %v", err)
	}
	if stored {
		t.Fatal("stale product was written back after eviction")
	}
	if _, _, err := c.GetProduct(ctx, 7); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}

	// A reader that started after the eviction may fill the cache.
	_, current, _ := c.GetProduct(ctx, 7)
	stored, err = c.SetProduct(ctx, stale, current)
	if err != nil || !stored {
		t.Fatalf("fresh SetProduct: stored=%v err=%v", stored, err)
	}
}

func TestIntegrationCache_AuthContext(t *testing.T) {
	ctx, c := newTestCache(t)

	got, err := c.GetAuthContext(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("expected nil miss, got %v %v", got, err)
	}

	auth := &model.AuthContext{TokenID: "tok", UserID: 3, Email: "a@example.com", Roles: []string{model.RoleAdmin}}
	if err := c.SetAuthContext(ctx, "k1", auth); err != nil {
		t.Fatalf("SetAuthContext failed: %v", err)
	}

	got, err = c.GetAuthContext(ctx, "k1")
	if err != nil || got == nil {
		t.Fatalf("GetAuthContext: %v %v", got, err)
	}
	if got.UserID != 3 || !got.IsAdmin() {
		t.Errorf("auth context mismatch: %+v", got)
	}

	// Expired tokens are never cached
	past := time.Now().Add(-time.Second)
	expired := &model.AuthContext{TokenID: "old", UserID: 4, ExpiresAt: &past}
	if err := c.SetAuthContext(ctx, "k2", expired); err != nil {
		t.Fatalf("SetAuthContext failed: %v", err)
	}
	if got, _ := c.GetAuthContext(ctx, "k2"); got != nil {
		t.Errorf("expired auth context should not be cached")
	}
}

func TestIntegrationCache_DeleteUserAuthContexts(t *testing.T) {
	ctx, c := newTestCache(t)

	for _, key := range []string{"phone", "laptop"} {
		a := &model.AuthContext{TokenID: key, UserID: 3, Roles: []string{model.RoleAdmin}}
		if err := c.SetAuthContext(ctx, key, a); err != nil {
			t.Fatalf("SetAuthContext failed: %v", err)
		}
	}
	other := &model.AuthContext{TokenID: "other", UserID: 4, Roles: []string{model.RoleUser}}
	if err := c.SetAuthContext(ctx, "other", other); err != nil {
		t.Fatalf("SetAuthContext failed: %v", err)
	}

	n, err := c.DeleteUserAuthContexts(ctx, 3)
	if err != nil {
		t.Fatalf("DeleteUserAuthContexts failed: %v", err)
	}
	if n != 2 {
		t.Errorf("evicted %d entries, want 2", n)
	}
	for _, key := range []string{"phone", "laptop"} {
		if got, _ := c.GetAuthContext(ctx, key); got != nil {
			t.Errorf("%s still cached after eviction", key)
		}
	}
	if got, _ := c.GetAuthContext(ctx, "other"); got == nil {
		t.Error("other user's auth context was evicted")
	}

	n, err = c.DeleteUserAuthContexts(ctx, 3)
	if err != nil || n != 0 {
		t.Errorf("second eviction: n=%d err=%v", n, err)
	}
}

func TestIntegrationCache_TokenRateLimit(t *testing.T) {
	ctx, c := newTestCache(t)

	for i := 0; i < 3; i++ {
		res, err := c.CheckAPIRateLimit(ctx, "tok-1", 1, 3)
		if err != nil {
			t.Fatalf("CheckAPIRateLimit failed: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, err := c.CheckAPIRateLimit(ctx, "tok-1", 1, 3)
	if err != nil {
		t.Fatalf("CheckAPIRateLimit failed: %v", err)
	}
	if res.Allowed {
		t.Error("fourth request within burst window should be limited")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want > 0", res.RetryAfter)
	}

	other, err := c.CheckAPIRateLimit(ctx, "tok-2", 1, 3)
	if err != nil || !other.Allowed {
		t.Errorf("other token should have its own bucket: %v %v", other, err)
	}
}
