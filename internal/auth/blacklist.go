package auth

import (
	"context"
	"sync"
	"time"
)

// Blacklist is the set of revoked token identifiers consulted on every
// token validation.
type Blacklist interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}

type blacklistEntry struct {
	jti       string
	expiresAt time.Time
}

// MemoryBlacklist is the default process-local blacklist. Entries are
// mutex-guarded and bounded: once maxEntries is exceeded the oldest
// entry is evicted. Revocation is therefore only consistent within a
// single worker process; deployments running multiple workers should
// use the Redis-backed blacklist instead.
type MemoryBlacklist struct {
	mu         sync.Mutex
	entries    map[string]time.Time
	order      []blacklistEntry
	maxEntries int
}

func NewMemoryBlacklist(maxEntries int) *MemoryBlacklist {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &MemoryBlacklist{
		entries:    make(map[string]time.Time),
		maxEntries: maxEntries,
	}
}

func (b *MemoryBlacklist) Add(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked()

	expiresAt := time.Now().Add(ttl)
	if _, exists := b.entries[jti]; !exists {
		for len(b.entries) >= b.maxEntries && len(b.order) > 0 {
			oldest := b.order[0]
			b.order = b.order[1:]
			delete(b.entries, oldest.jti)
		}
		b.order = append(b.order, blacklistEntry{jti: jti, expiresAt: expiresAt})
	}
	b.entries[jti] = expiresAt
	return nil
}

func (b *MemoryBlacklist) Contains(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, ok := b.entries[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		delete(b.entries, jti)
		return false, nil
	}
	return true, nil
}

// Len reports the current number of live entries.
func (b *MemoryBlacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()
	return len(b.entries)
}

func (b *MemoryBlacklist) pruneLocked() {
	now := time.Now()
	kept := b.order[:0]
	for _, e := range b.order {
		if stored, ok := b.entries[e.jti]; ok && now.Before(stored) {
			kept = append(kept, e)
		} else {
			delete(b.entries, e.jti)
		}
	}
	b.order = kept
}
