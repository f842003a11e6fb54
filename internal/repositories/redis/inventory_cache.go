// Package redis implements repositories backed by Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

const inventoryKeyPrefix = "freshcart:inventory:"

type inventoryDocument struct {
	StoreID     int64          `json:"store_id"`
	StoreName   string         `json:"store_name"`
	Stock       map[string]int `json:"stock"`
	LastUpdated time.Time      `json:"last_updated"`
}

// InventoryCache shares generated store inventories across API instances.
type InventoryCache struct {
	client goredis.UniversalClient
}

var _ repositories.InventoryCache = (*InventoryCache)(nil)

func NewInventoryCache(client goredis.UniversalClient) (*InventoryCache, error) {
	if client == nil {
		return nil, errors.New("inventory cache: redis client is required")
	}
	return &InventoryCache{client: client}, nil
}

func inventoryKey(storeID int64) string {
	return inventoryKeyPrefix + strconv.FormatInt(storeID, 10)
}

func (c *InventoryCache) Get(ctx context.Context, storeID int64) (domain.StoreInventory, bool, error) {
	raw, err := c.client.Get(ctx, inventoryKey(storeID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.StoreInventory{}, false, nil
	}
	if err != nil {
		return domain.StoreInventory{}, false, repositories.NewUnavailable("inventory_cache.get", err)
	}
	var doc inventoryDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A corrupt entry is treated as a miss and regenerated.
		return domain.StoreInventory{}, false, nil
	}
	stock := make(map[int64]int, len(doc.Stock))
	for key, qty := range doc.Stock {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		stock[id] = qty
	}
	return domain.StoreInventory{
		StoreID:     doc.StoreID,
		StoreName:   doc.StoreName,
		Stock:       stock,
		LastUpdated: doc.LastUpdated,
	}, true, nil
}

func (c *InventoryCache) Put(ctx context.Context, inventory domain.StoreInventory, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	doc := inventoryDocument{
		StoreID:     inventory.StoreID,
		StoreName:   inventory.StoreName,
		Stock:       make(map[string]int, len(inventory.Stock)),
		LastUpdated: inventory.LastUpdated.UTC(),
	}
	for id, qty := range inventory.Stock {
		doc.Stock[strconv.FormatInt(id, 10)] = qty
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("inventory cache: encode: %w", err)
	}
	if err := c.client.Set(ctx, inventoryKey(inventory.StoreID), payload, ttl).Err(); err != nil {
		return repositories.NewUnavailable("inventory_cache.put", err)
	}
	return nil
}

// Ping reports whether Redis answers; used by readiness checks.
func (c *InventoryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
