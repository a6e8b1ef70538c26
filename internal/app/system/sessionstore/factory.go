package sessionstore

import (
	"errors"
	"fmt"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/skilltree/skills-service/internal/app/system/autoconfig"
	"go.mongodb.org/mongo-driver/mongo"
)

// Kind names a session store backend.
type Kind string

const (
	// KindRedis stores sessions in Redis.
	KindRedis Kind = "redis"
	// KindMongo stores sessions in the application database. It is the
	// default whenever sessions are on and Redis is not selected.
	KindMongo Kind = "mongo"
	// KindNone means no server-side sessions.
	KindNone Kind = "none"
)

// ErrUnknownStoreKind is returned by New for kinds it does not know.
var ErrUnknownStoreKind = errors.New("unknown session store kind")

// KindFor maps auto-configuration exclusions to a store kind.
func KindFor(ex autoconfig.Exclusions) Kind {
	switch {
	case ex.Has(autoconfig.Session):
		return KindNone
	case ex.Enabled(autoconfig.Redis):
		return KindRedis
	default:
		return KindMongo
	}
}

// Config carries what the factory needs to build any store.
type Config struct {
	Options     *sessions.Options
	KeyPairs    [][]byte
	Redis       *redis.Client
	RedisPrefix string
	Mongo       *mongo.Database
	Observe     OpFunc
}

// New builds the store for kind. KindNone yields a nil store and no error.
func New(kind Kind, cfg Config) (*Store, error) {
	switch kind {
	case KindNone:
		return nil, nil
	case KindRedis:
		return NewRedisStore(cfg.Redis, cfg.RedisPrefix, cfg.Options, cfg.Observe, cfg.KeyPairs...)
	case KindMongo:
		return NewMongoStore(cfg.Mongo, cfg.Options, cfg.Observe, cfg.KeyPairs...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreKind, kind)
	}
}
