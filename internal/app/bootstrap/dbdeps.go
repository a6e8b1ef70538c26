// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"github.com/skilltree/skills-service/internal/app/system/metrics"
	"github.com/skilltree/skills-service/internal/app/system/sessionstore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// ConnectDB fills every field; the session store sits on top of the
// clients, so it is built there too. Fields for excluded modules stay nil.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil unless the redis module is enabled.
	Redis *redis.Client

	// SessionStore is nil when the session module is excluded.
	SessionStore *sessionstore.Store

	Metrics *metrics.Registry
}
