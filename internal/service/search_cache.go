package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SearchCache stores serialized search results per site. Entries are
// invalidated wholesale for a site whenever that site's interactions
// change, and on demand via the cache-invalidate endpoint.
type SearchCache interface {
	Get(ctx context.Context, siteID uint, key string) ([]byte, bool, error)
	Set(ctx context.Context, siteID uint, key string, value []byte, ttl time.Duration) error
	InvalidateSite(ctx context.Context, siteID uint) error
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemorySearchCache is the default process-local cache: mutex-guarded
// and bounded, evicting the oldest entry past maxEntries.
type MemorySearchCache struct {
	mu         sync.Mutex
	entries    map[uint]map[string]cacheEntry
	order      []string
	maxEntries int
}

func NewMemorySearchCache(maxEntries int) *MemorySearchCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemorySearchCache{
		entries:    make(map[uint]map[string]cacheEntry),
		maxEntries: maxEntries,
	}
}

func (c *MemorySearchCache) Get(_ context.Context, siteID uint, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	site, ok := c.entries[siteID]
	if !ok {
		return nil, false, nil
	}
	entry, ok := site[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(site, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *MemorySearchCache) Set(_ context.Context, siteID uint, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, site := range c.entries {
		total += len(site)
	}
	for total >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		for _, site := range c.entries {
			if _, ok := site[oldest]; ok {
				delete(site, oldest)
				total--
				break
			}
		}
	}

	site, ok := c.entries[siteID]
	if !ok {
		site = make(map[string]cacheEntry)
		c.entries[siteID] = site
	}
	if _, exists := site[key]; !exists {
		c.order = append(c.order, key)
	}
	site[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *MemorySearchCache) InvalidateSite(_ context.Context, siteID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, siteID)
	return nil
}

// RedisSearchCache shares cached results across worker processes.
type RedisSearchCache struct {
	rdb *redis.Client
}

func NewRedisSearchCache(rdb *redis.Client) *RedisSearchCache {
	return &RedisSearchCache{rdb: rdb}
}

func searchKey(siteID uint, key string) string {
	return fmt.Sprintf("search:%d:%s", siteID, key)
}

func (c *RedisSearchCache) Get(ctx context.Context, siteID uint, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, searchKey(siteID, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisSearchCache) Set(ctx context.Context, siteID uint, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, searchKey(siteID, key), value, ttl).Err()
}

func (c *RedisSearchCache) InvalidateSite(ctx context.Context, siteID uint) error {
	var cursor uint64
	pattern := fmt.Sprintf("search:%d:*", siteID)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
