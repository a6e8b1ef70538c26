// internal/app/bootstrap/connect.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/skilltree/skills-service/internal/app/system/autoconfig"
	"github.com/skilltree/skills-service/internal/app/system/hostverify"
	"github.com/skilltree/skills-service/internal/app/system/metrics"
	"github.com/skilltree/skills-service/internal/app/system/sessionstore"
	"github.com/skilltree/skills-service/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects the backends the enabled modules need.
//
// MongoDB is always connected. Redis is connected only when the redis
// module is enabled, and must answer PING or startup fails. The session
// store is built last, on top of whichever client it needs.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{Metrics: metrics.New()}

	client, err := connectMongo(ctx, appCfg, logger)
	if err != nil {
		return DBDeps{}, err
	}
	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)

	if appCfg.Exclusions.Enabled(autoconfig.Redis) {
		rdb, err := connectRedis(ctx, appCfg, logger)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, err
		}
		deps.Redis = rdb
	}

	store, err := buildSessionStore(coreCfg, appCfg, deps)
	if err != nil {
		closeDeps(context.Background(), deps, logger)
		return DBDeps{}, fmt.Errorf("build session store: %w", err)
	}
	deps.SessionStore = store

	return deps, nil
}

func connectMongo(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Connect())
	defer cancel()

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoTLS {
		opts.SetTLSConfig(hostverify.ClientTLSConfig())
	}

	logger.Info("connecting to MongoDB", zap.String("database", appCfg.MongoDatabase))
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

func connectRedis(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*redis.Client, error) {
	ropts := &redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	}
	if appCfg.RedisTLS {
		ropts.TLSConfig = hostverify.ClientTLSConfig()
	}
	rdb := redis.NewClient(ropts)

	ctx, cancel := context.WithTimeout(ctx, timeouts.Connect())
	defer cancel()

	logger.Info("connecting to Redis", zap.String("addr", appCfg.RedisAddr), zap.Int("db", appCfg.RedisDB))
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping Redis at %s: %w", appCfg.RedisAddr, err)
	}
	return rdb, nil
}

// buildSessionStore picks the store from the exclusions. It returns nil
// when the session module is excluded.
func buildSessionStore(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps) (*sessionstore.Store, error) {
	kind := sessionstore.KindFor(appCfg.Exclusions)
	if kind == sessionstore.KindNone {
		return nil, nil
	}

	hashKey, blockKey, err := sessionstore.DeriveKeys(appCfg.SessionKey)
	if err != nil {
		return nil, err
	}

	cfg := sessionstore.Config{
		Options:     sessionOptions(coreCfg, appCfg),
		KeyPairs:    [][]byte{hashKey, blockKey},
		Redis:       deps.Redis,
		RedisPrefix: appCfg.RedisPrefix,
		Mongo:       deps.MongoDatabase,
	}
	if deps.Metrics != nil {
		cfg.Observe = deps.Metrics.ObserveSessionOp
	}
	return sessionstore.New(kind, cfg)
}

// sessionOptions returns the cookie options for new sessions.
// Secure cookies are enabled in production mode.
func sessionOptions(coreCfg *config.CoreConfig, appCfg AppConfig) *sessions.Options {
	secure := coreCfg != nil && coreCfg.Env == "prod"
	return &sessions.Options{
		Path:     "/",
		Domain:   appCfg.SessionDomain,
		MaxAge:   int(appCfg.SessionMaxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
