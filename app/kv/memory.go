package kv

import (
	"bytes"
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store for local development and tests. The
// mutex serializes Incr and CompareAndSwap; go-cache handles expiry.
type MemoryStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (s *MemoryStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(key)
	if !ok {
		s.cache.Set(key, int64(1), ttl)
		return 1, nil
	}
	count, _ := v.(int64)
	count++
	_, exp, _ := s.cache.GetWithExpiration(key)
	remaining := gocache.NoExpiration
	if !exp.IsZero() {
		remaining = time.Until(exp)
	}
	s.cache.Set(key, count, remaining)
	return count, nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, key string, expected, replacement []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exp, ok := s.cache.GetWithExpiration(key)
	if !ok {
		return false, nil
	}
	cur, ok := v.([]byte)
	if !ok || !bytes.Equal(cur, expected) {
		return false, nil
	}
	ttl := gocache.NoExpiration
	if !exp.IsZero() {
		ttl = time.Until(exp)
	}
	s.cache.Set(key, replacement, ttl)
	return true, nil
}
