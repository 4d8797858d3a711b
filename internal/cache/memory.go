package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const defaultMaxTTL = 10 * time.Minute

// MemoryStore es el backend en proceso. Las entradas expiran por su TTL
// propio y, al llegar a maxEntries, se desalojan las menos usadas.
type MemoryStore struct {
	items *ttlcache.Cache[string, []byte]
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithTTL[string, []byte](defaultMaxTTL),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if maxEntries > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](uint64(maxEntries)))
	}
	items := ttlcache.New[string, []byte](opts...)
	go items.Start()
	return &MemoryStore{items: items}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := s.items.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	s.items.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.items.Delete(key)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.items.DeleteAll()
	return nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	return s.items.Len(), nil
}

func (s *MemoryStore) Backend() string { return "memory" }

// Close detiene el goroutine de expiracion.
func (s *MemoryStore) Close() {
	s.items.Stop()
}
