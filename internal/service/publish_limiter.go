package service

import (
	"context"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// PublishLimiter limita cuantas publicaciones de rationale acepta una clave
// (ip del cliente) por ventana.
type PublishLimiter interface {
	Allow(key string) bool
}

// MemoryPublishLimiter guarda un token bucket por clave: max publicaciones
// de rafaga que se recargan a razon de max por ventana. Una clave inactiva
// durante una ventana ya tiene el bucket lleno y se desaloja.
type MemoryPublishLimiter struct {
	limiters *ttlcache.Cache[string, *rate.Limiter]
	every    rate.Limit
	max      int
}

// NewPublishLimiter crea el limitador en memoria. Close detiene la limpieza.
func NewPublishLimiter(window time.Duration, max int) *MemoryPublishLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	limiters := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](window),
	)
	go limiters.Start()
	return &MemoryPublishLimiter{
		limiters: limiters,
		every:    rate.Every(window / time.Duration(max)),
		max:      max,
	}
}

func (l *MemoryPublishLimiter) Allow(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	item, _ := l.limiters.GetOrSet(key, rate.NewLimiter(l.every, l.max))
	return item.Value().Allow()
}

// Len es el numero de claves con limitador vivo.
func (l *MemoryPublishLimiter) Len() int { return l.limiters.Len() }

func (l *MemoryPublishLimiter) Close() { l.limiters.Stop() }

const redisPublishAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisPublishLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

// NewRedisPublishLimiter comparte el conteo entre replicas. Ventana fija.
func NewRedisPublishLimiter(client *redis.Client, window time.Duration, max int) PublishLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisPublishLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "govtwool:rl:publish:",
	}
}

// Allow falla abierto si redis no responde.
func (l *redisPublishLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisPublishAllowScript, []string{l.prefix + key}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
