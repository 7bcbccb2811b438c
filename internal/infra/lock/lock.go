// Package lock межпроцессная блокировка для фоновых задач.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired блокировку держит другой процесс
	ErrNotAcquired = errors.New("lock: not acquired")
	// ErrNotHeld блокировка истекла или принадлежит другому владельцу
	ErrNotHeld = errors.New("lock: not held")
)

// Locker выдает именованные блокировки с TTL
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Release снимает полученную блокировку
type Release func(ctx context.Context) error

// releaseScript удаляет ключ, только если значение совпадает с токеном владельца
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis блокировка через SET NX PX
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis создает блокировку поверх клиента redis
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "lock"
	}
	return &Redis{client: client, prefix: prefix}
}

func (l *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error) {
	fullKey := l.prefix + ":" + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock: set %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Int64()
		if err != nil {
			return fmt.Errorf("lock: release %s: %w", fullKey, err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}, nil
}

// Local блокировка без redis для одного экземпляра сервиса
type Local struct{}

func (Local) Acquire(context.Context, string, time.Duration) (Release, error) {
	return func(context.Context) error { return nil }, nil
}
