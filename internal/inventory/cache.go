package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
)

const (
	cachePrefix   = "inventory:low_stock"
	allBrandsKey  = "all"
	noneBrandsKey = "none"
)

// Cache keeps low-stock pages in Redis, versioned per brand. A movement bumps
// the version of its brand and of the cross-brand scope, which orphans every
// cached page for them.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func scopeToken(vis brandscope.Visibility) string {
	switch {
	case vis.None:
		return noneBrandsKey
	case vis.All:
		return allBrandsKey
	default:
		return vis.Brand.String()
	}
}

func versionKey(scope string) string {
	return cachePrefix + ":version:" + scope
}

func (c *Cache) version(ctx context.Context, scope string) (int64, error) {
	ver, err := c.client.Get(ctx, versionKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// FetchLowStock returns a cached page or populates it using loader.
// Concurrent misses for the same key share one loader call.
func (c *Cache) FetchLowStock(ctx context.Context, vis brandscope.Visibility, limit, offset int, loader func(context.Context) (LowStockPage, error)) (LowStockPage, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	scope := scopeToken(vis)
	ver, err := c.version(ctx, scope)
	if err != nil {
		return loader(ctx)
	}
	key := strings.Join([]string{cachePrefix, scope, fmt.Sprint(limit), fmt.Sprint(offset), fmt.Sprintf("v%d", ver)}, ":")

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var page LowStockPage
		if err := json.Unmarshal(payload, &page); err == nil {
			return page, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		page, err := loader(ctx)
		if err != nil {
			return LowStockPage{}, err
		}
		raw, err := json.Marshal(page)
		if err != nil {
			return LowStockPage{}, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return page, nil
		}
		return page, nil
	})
	if err != nil {
		return LowStockPage{}, err
	}
	return v.(LowStockPage), nil
}

// Bump invalidates cached pages for brandID and for the cross-brand scope.
func (c *Cache) Bump(ctx context.Context, brandID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, versionKey(brandID.String()))
	pipe.Incr(ctx, versionKey(allBrandsKey))
	_, err := pipe.Exec(ctx)
	return err
}
