package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const latestBlockPrefix = "chain:latest_block:"

// RedisBlockStore keeps the latest block per coin in the shared cache.
type RedisBlockStore struct {
	cache *redis.Client
}

// NewRedisBlockStore builds a Redis-backed block store.
func NewRedisBlockStore(cache *redis.Client) *RedisBlockStore {
	return &RedisBlockStore{cache: cache}
}

func (s *RedisBlockStore) SetLatest(ctx context.Context, coin string, header BlockHeader) error {
	payload, err := json.Marshal(header)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, latestBlockPrefix+coin, payload, 0).Err()
}

func (s *RedisBlockStore) Latest(ctx context.Context, coin string) (BlockHeader, bool, error) {
	raw, err := s.cache.Get(ctx, latestBlockPrefix+coin).Result()
	if errors.Is(err, redis.Nil) {
		return BlockHeader{}, false, nil
	}
	if err != nil {
		return BlockHeader{}, false, fmt.Errorf("read latest block: %w", err)
	}
	var header BlockHeader
	if err := json.Unmarshal([]byte(raw), &header); err != nil {
		return BlockHeader{}, false, fmt.Errorf("decode latest block: %w", err)
	}
	return header, true, nil
}

// MemoryBlockStore is an in-memory block store for tests and cache-less
// runs.
type MemoryBlockStore struct {
	mu     sync.RWMutex
	latest map[string]BlockHeader
}

// NewMemoryBlockStore builds an in-memory block store.
func NewMemoryBlockStore() *MemoryBlockStore {
	return &MemoryBlockStore{latest: make(map[string]BlockHeader)}
}

func (s *MemoryBlockStore) SetLatest(_ context.Context, coin string, header BlockHeader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[coin] = header
	return nil
}

func (s *MemoryBlockStore) Latest(_ context.Context, coin string) (BlockHeader, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	header, ok := s.latest[coin]
	return header, ok, nil
}
