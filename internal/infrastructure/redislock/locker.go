// Package redislock lock distribuido por serie fiscal sobre Redis (SET NX PX + liberación
// con compare-and-delete), para varias réplicas de la API firmando en la misma serie.
package redislock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/pkg/config"
)

var _ fiscal.SeriesLocker = (*Locker)(nil)

const (
	DefaultTTL   = 30 * time.Second
	defaultRetry = 25 * time.Millisecond
)

// releaseScript borra la llave solo si sigue siendo nuestra (el TTL pudo vencer y otro
// proceso tomarla).
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// NewClient crea el cliente Redis desde la configuración.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Locker implementa fiscal.SeriesLocker con Redis.
// El TTL acota el lock si el proceso muere a mitad de la firma; debe superar con holgura
// la duración de una transacción de firma.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// New construye el locker. ttl <= 0 usa DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{client: client, ttl: ttl, retry: defaultRetry, prefix: "lock:"}
}

// Lock reintenta SET NX hasta obtener el lock o hasta que ctx termine.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redislock: adquirir %s: %w", key, err)
		}
		if ok {
			return l.unlockFunc(redisKey, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redislock: esperando %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlockFunc(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// Contexto propio: el del caller puede estar cancelado y el lock debe liberarse igual.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
		})
	}
}
