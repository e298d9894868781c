// Package sitectx tracks which site (tenant) a user has selected as
// active. The selection is session-scoped state, re-derived per request
// together with the token's site_ids claim; it is never a substitute for
// the membership check.
package sitectx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SiteContext is the resolved active tenant for a request: the selected
// site id plus the caller's role for that site.
type SiteContext struct {
	SiteID uint        `json:"site_id"`
	Role   domain.Role `json:"role"`
}

// Store persists the per-user site selection between requests.
type Store interface {
	Get(ctx context.Context, userID uint) (uint, bool, error)
	Set(ctx context.Context, userID, siteID uint) error
	Clear(ctx context.Context, userID uint) error
}

// MemoryStore is the default process-local store.
type MemoryStore struct {
	mu        sync.RWMutex
	selection map[uint]uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{selection: make(map[uint]uint)}
}

func (s *MemoryStore) Get(_ context.Context, userID uint) (uint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	siteID, ok := s.selection[userID]
	return siteID, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, userID, siteID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection[userID] = siteID
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selection, userID)
	return nil
}

const redisKeyPrefix = "sitectx:"

// RedisStore shares site selections across worker processes.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID uint) (uint, bool, error) {
	val, err := s.rdb.Get(ctx, fmt.Sprintf("%s%d", redisKeyPrefix, userID)).Uint64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint(val), true, nil
}

func (s *RedisStore) Set(ctx context.Context, userID, siteID uint) error {
	return s.rdb.Set(ctx, fmt.Sprintf("%s%d", redisKeyPrefix, userID), uint64(siteID), s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, userID uint) error {
	return s.rdb.Del(ctx, fmt.Sprintf("%s%d", redisKeyPrefix, userID)).Err()
}
