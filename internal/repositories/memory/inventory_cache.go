package memory

import (
	"context"
	"sync"
	"time"

	"github.com/apper-canvas/freshcartelevate/internal/domain"
	"github.com/apper-canvas/freshcartelevate/internal/repositories"
)

type inventoryEntry struct {
	inventory domain.StoreInventory
	expiresAt time.Time
}

// InventoryCache keeps generated store inventories in process.
type InventoryCache struct {
	mu      sync.Mutex
	entries map[int64]inventoryEntry
	now     func() time.Time
}

var _ repositories.InventoryCache = (*InventoryCache)(nil)

func NewInventoryCache(clock func() time.Time) *InventoryCache {
	if clock == nil {
		clock = time.Now
	}
	return &InventoryCache{entries: make(map[int64]inventoryEntry), now: clock}
}

func (c *InventoryCache) Get(_ context.Context, storeID int64) (domain.StoreInventory, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[storeID]
	if !ok || !c.now().Before(entry.expiresAt) {
		delete(c.entries, storeID)
		return domain.StoreInventory{}, false, nil
	}
	return cloneInventory(entry.inventory), true, nil
}

// Put stores inventory for ttl from now.
func (c *InventoryCache) Put(_ context.Context, inventory domain.StoreInventory, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[inventory.StoreID] = inventoryEntry{
		inventory: cloneInventory(inventory),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func cloneInventory(inv domain.StoreInventory) domain.StoreInventory {
	stock := make(map[int64]int, len(inv.Stock))
	for id, qty := range inv.Stock {
		stock[id] = qty
	}
	inv.Stock = stock
	return inv
}
