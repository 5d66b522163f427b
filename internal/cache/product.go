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
	productKeyPrefix = "product:"

	// DefaultProductTTL is the TTL for cached product data.
	DefaultProductTTL = time.Hour

	// productGenerationTTL keeps eviction counters around far longer than
	// any read can take.
	productGenerationTTL = 24 * time.Hour
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// cachedProduct is the Redis representation of a product read, including the
// embedded manufacturer name.
type cachedProduct struct {
	ID               int64      `json:"id"`
	MPN              *string    `json:"mpn"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	IssueDate        *time.Time `json:"issue_date"`
	ManufacturerID   *int64     `json:"manufacturer_id"`
	ManufacturerName string     `json:"manufacturer_name,omitempty"`
	OwnerID          *int64     `json:"owner_id"`
}

func productKey(id int64) string {
	return productKeyPrefix + strconv.FormatInt(id, 10)
}

// productGenerationKey counts evictions of one product. A read that loaded
// the row under an older generation must not write it back.
func productGenerationKey(id int64) string {
	return productKey(id) + ":gen"
}

// setProductScript stores a product only while the eviction counter still
// matches the generation the caller observed before loading the row.
var setProductScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[2]) or '0'
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	return 1
`)

// GetProduct retrieves a product from cache. On a miss it returns
// ErrCacheMiss together with the product's current generation, which the
// caller hands back to SetProduct.
func (c *Cache) GetProduct(ctx context.Context, id int64) (*model.Product, uint64, error) {
	values, err := c.client.MGet(ctx, productKey(id), productGenerationKey(id)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis mget failed: %w", err)
	}

	generation, err := parseGeneration(values[1])
	if err != nil {
		return nil, 0, err
	}

	data, ok := values[0].(string)
	if !ok {
		return nil, generation, ErrCacheMiss
	}

	var cached cachedProduct
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, generation, ErrCacheMiss
	}

	return cached.toProduct(), generation, nil
}

// SetProduct stores a product read at the given generation. It reports
// false, without error, when the product was evicted in the meantime.
func (c *Cache) SetProduct(ctx context.Context, p *model.Product, generation uint64) (bool, error) {
	data, err := json.Marshal(newCachedProduct(p))
	if err != nil {
		return false, fmt.Errorf("marshal product: %w", err)
	}

	stored, err := setProductScript.Run(ctx, c.client,
		[]string{productKey(p.ID), productGenerationKey(p.ID)},
		strconv.FormatUint(generation, 10), data, DefaultProductTTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache product: %w", err)
	}

	return stored == 1, nil
}

// DeleteProducts removes products from cache and bumps their generation so
// in-flight reads cannot repopulate them with stale rows.
func (c *Cache) DeleteProducts(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, productKey(id))
			pipe.Incr(ctx, productGenerationKey(id))
			pipe.Expire(ctx, productGenerationKey(id), productGenerationTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete products from cache: %w", err)
	}

	return nil
}

func parseGeneration(v any) (uint64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	generation, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt product generation %q: %w", s, err)
	}
	return generation, nil
}

func newCachedProduct(p *model.Product) cachedProduct {
	cached := cachedProduct{
		ID:             p.ID,
		MPN:            p.MPN,
		Name:           p.Name,
		Description:    p.Description,
		IssueDate:      p.IssueDate,
		ManufacturerID: p.ManufacturerID,
		OwnerID:        p.OwnerID,
	}
	if p.Manufacturer != nil {
		cached.ManufacturerName = p.Manufacturer.Name
	}
	return cached
}

func (cp cachedProduct) toProduct() *model.Product {
	p := &model.Product{
		ID:             cp.ID,
		MPN:            cp.MPN,
		Name:           cp.Name,
		Description:    cp.Description,
		IssueDate:      cp.IssueDate,
		ManufacturerID: cp.ManufacturerID,
		OwnerID:        cp.OwnerID,
	}
	if cp.ManufacturerID != nil {
		p.Manufacturer = &model.ManufacturerRef{ID: *cp.ManufacturerID, Name: cp.ManufacturerName}
	}
	return p
}
