// Package cache 整页缓存；只按 TTL 过期，发帖不会使缓存失效
package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/metrics"
)

// ErrSkip 计算函数返回时不写缓存
var ErrSkip = errors.New("cache: skip store")

// Store 缓存后端
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// PageCache 读穿缓存，附带命中计数
type PageCache struct {
	store Store

	hits     atomic.Int64
	misses   atomic.Int64
	computes atomic.Int64
}

func NewPageCache(store Store) *PageCache {
	return &PageCache{store: store}
}

// GetOrCompute 未命中时调用 fn 并写入；后端出错时直接计算
func (c *PageCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if val, ok, err := c.store.Get(ctx, key); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logger.Warn("page cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		c.hits.Add(1)
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return val, true, nil
	}

	c.misses.Add(1)
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	c.computes.Add(1)
	val, err := fn(ctx)
	if errors.Is(err, ErrSkip) {
		return val, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if ttl > 0 {
		if err := c.store.Set(ctx, key, val, ttl); err != nil {
			logger.Warn("page cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return val, false, nil
}

// Clear 清空全部缓存页
func (c *PageCache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Counters 自创建或上次 ResetCounters 以来的计数
func (c *PageCache) Counters() Counters {
	return Counters{Hits: c.hits.Load(), Misses: c.misses.Load(), Computes: c.computes.Load()}
}

func (c *PageCache) ResetCounters() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.computes.Store(0)
}

// Counters 缓存计数
type Counters struct {
	Hits     int64
	Misses   int64
	Computes int64
}
