package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memEntry struct {
	val       []byte
	expiresAt time.Time
}

// MemoryStore 进程内缓存：LRU 限制条目数，每条目独立过期
type MemoryStore struct {
	lru *expirable.LRU[string, memEntry]
	now func() time.Time
}

func NewMemoryStore(size int) *MemoryStore {
	if size <= 0 {
		size = 1024
	}
	// ttl 0: 由 memEntry.expiresAt 控制过期
	return &MemoryStore{lru: expirable.NewLRU[string, memEntry](size, nil, 0), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.lru.Add(key, memEntry{val: val, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.lru.Purge()
	return nil
}
