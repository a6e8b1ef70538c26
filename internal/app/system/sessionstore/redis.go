package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys in a shared Redis.
const DefaultRedisPrefix = "skills:session:"

type redisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a Store that keeps session values in Redis under
// prefix+ID with the session lifetime as key TTL.
func NewRedisStore(client *redis.Client, prefix string, opts *sessions.Options, observe OpFunc, keyPairs ...[]byte) (*Store, error) {
	if client == nil {
		return nil, errNoBackend
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return newStore(KindRedis, &redisBackend{client: client, prefix: prefix}, opts, observe, keyPairs...), nil
}

func (b *redisBackend) load(ctx context.Context, id string) (string, bool, error) {
	data, err := b.client.Get(ctx, b.prefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return data, true, nil
}

func (b *redisBackend) save(ctx context.Context, id, data string, ttl time.Duration) error {
	return b.client.Set(ctx, b.prefix+id, data, ttl).Err()
}

func (b *redisBackend) delete(ctx context.Context, id string) error {
	return b.client.Del(ctx, b.prefix+id).Err()
}
