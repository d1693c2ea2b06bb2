package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"suitcraft.com/web/internal/page"
)

// StateStore persists page state per session ID.
type StateStore interface {
	Load(ctx context.Context, id string) (page.State, bool, error)
	Save(ctx context.Context, id string, st page.State, ttl time.Duration) error
}

const memorySweepInterval = time.Minute

// MemoryStateStore keeps page state in process memory. Expired entries are
// swept lazily on Save.
type MemoryStateStore struct {
	mu        sync.Mutex
	items     map[string]memoryState
	now       func() time.Time
	lastSweep time.Time
}

type memoryState struct {
	state   page.State
	expires time.Time
}

// NewMemoryStateStore returns an empty in-process store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: map[string]memoryState{}, now: time.Now}
}

// Load implements StateStore.
func (m *MemoryStateStore) Load(_ context.Context, id string) (page.State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.items[id]
	if !ok || m.now().After(entry.expires) {
		return page.State{}, false, nil
	}
	return entry.state, true, nil
}

// Save implements StateStore.
func (m *MemoryStateStore) Save(_ context.Context, id string, st page.State, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.items[id] = memoryState{state: st, expires: now.Add(ttl)}
	if now.Sub(m.lastSweep) >= memorySweepInterval {
		for k, v := range m.items {
			if now.After(v.expires) {
				delete(m.items, k)
			}
		}
		m.lastSweep = now
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryStateStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// RedisStateStore keeps page state as JSON strings with a TTL.
type RedisStateStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStateStore stores state under prefix+id.
func NewRedisStateStore(client redis.UniversalClient, prefix string) *RedisStateStore {
	if prefix == "" {
		prefix = "suitcraft:page:"
	}
	return &RedisStateStore{client: client, prefix: prefix}
}

// Load implements StateStore.
func (s *RedisStateStore) Load(ctx context.Context, id string) (page.State, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return page.State{}, false, nil
	}
	if err != nil {
		return page.State{}, false, fmt.Errorf("session: redis get: %w", err)
	}
	var st page.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return page.State{}, false, fmt.Errorf("session: decode state: %w", err)
	}
	return st, true, nil
}

// Save implements StateStore.
func (s *RedisStateStore) Save(ctx context.Context, id string, st page.State, ttl time.Duration) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session: encode state: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+id, raw, ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}
