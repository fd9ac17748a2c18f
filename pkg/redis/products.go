package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"metitejidos.com.ar/storefront/pkg/models"
)

const (
	defaultProductTTL = 10 * time.Minute
	recentProductsKey = "products:recent"
)

var ErrCacheMiss = errors.New("cache miss")

// ProductCache holds single products under product:{id}. Stock is never
// read from here when a cart is mutated or an order placed.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = defaultProductTTL
	}
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func categoryKey(category models.Category) string {
	return fmt.Sprintf("category:%s", category)
}

func (c *ProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	raw, err := c.client.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s from cache: %w", id, err)
	}

	var product models.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	return &product, nil
}

// Set caches the product and indexes it in its category and the recent list.
func (c *ProductCache) Set(ctx context.Context, product *models.Product) error {
	productJSON, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product %s: %w", product.ID, err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, productKey(product.ID), productJSON, c.ttl)

	catKey := categoryKey(product.Category)
	pipe.LRem(ctx, catKey, 0, product.ID)
	pipe.LPush(ctx, catKey, product.ID)
	pipe.Expire(ctx, catKey, c.ttl)

	pipe.LRem(ctx, recentProductsKey, 0, product.ID)
	pipe.LPush(ctx, recentProductsKey, product.ID)
	pipe.LTrim(ctx, recentProductsKey, 0, 99)
	pipe.Expire(ctx, recentProductsKey, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for product %s: %w", product.ID, err)
	}
	return nil
}

// Invalidate drops the product and its index entries.
func (c *ProductCache) Invalidate(ctx context.Context, product *models.Product) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, productKey(product.ID))
	if product.Category != "" {
		pipe.LRem(ctx, categoryKey(product.Category), 0, product.ID)
	}
	pipe.LRem(ctx, recentProductsKey, 0, product.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove product from Redis cache: %w", err)
	}
	return nil
}

// Recent lists up to limit product ids, most recently cached first.
func (c *ProductCache) Recent(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := c.client.LRange(ctx, recentProductsKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent products: %w", err)
	}
	return ids, nil
}
