package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Store es el backend de almacenamiento de bytes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	Backend() string
}

// Stats se expone en /health.
type Stats struct {
	Enabled bool    `json:"enabled"`
	Backend string  `json:"backend"`
	Entries int     `json:"entries"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Cache envuelve un Store con contadores y un interruptor global.
// Los errores del backend se registran y se tratan como miss.
type Cache struct {
	store   Store
	enabled bool
	logger  *zap.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

func New(store Store, enabled bool, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, enabled: enabled && store != nil, logger: logger}
}

// Disabled devuelve un cache que nunca guarda nada.
func Disabled() *Cache {
	return New(nil, false, nil)
}

func (c *Cache) Enabled() bool { return c != nil && c.enabled }

func (c *Cache) Get(ctx context.Context, key Key) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	val, ok, err := c.store.Get(ctx, key.String())
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key.String()), zap.Error(err))
	}
	if err != nil || !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return val, true
}

func (c *Cache) Set(ctx context.Context, key Key, value []byte) {
	if !c.Enabled() || key.IsZero() {
		return
	}
	if err := c.store.Set(ctx, key.String(), value, key.TTL()); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key.String()), zap.Error(err))
	}
}

func (c *Cache) Delete(ctx context.Context, key Key) {
	if !c.Enabled() {
		return
	}
	if err := c.store.Delete(ctx, key.String()); err != nil {
		c.logger.Warn("cache delete failed", zap.String("key", key.String()), zap.Error(err))
	}
}

// Clear vacia el backend y reinicia los contadores.
func (c *Cache) Clear(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	c.hits.Store(0)
	c.misses.Store(0)
	return c.store.Clear(ctx)
}

func (c *Cache) Stats(ctx context.Context) Stats {
	if c == nil {
		return Stats{}
	}
	s := Stats{Enabled: c.Enabled(), Hits: c.hits.Load(), Misses: c.misses.Load()}
	if c.store != nil {
		s.Backend = c.store.Backend()
	}
	if s.Enabled {
		if n, err := c.store.Len(ctx); err == nil {
			s.Entries = n
		}
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
