// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skilltree/skills-service/internal/app/system/sessionstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SessionTTLIndex is the name of the index that expires stored sessions.
const SessionTTLIndex = "idx_http_sessions_ttl"

/*
EnsureSessions is called at startup when the MongoDB session store is in
use. It is idempotent: indexes that already match are reused, indexes with
the right keys but a different name or options are rebuilt.
*/
func EnsureSessions(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	coll := db.Collection(sessionstore.MongoCollection)
	return ensureIndexSet(ctx, coll, SessionModels(), logger)
}

// SessionModels returns the indexes wanted on the session collection.
// expires_at holds the absolute expiry, so the TTL offset is zero.
func SessionModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName(SessionTTLIndex).
				SetExpireAfterSeconds(0),
		},
	}
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             *bool  `bson:"unique,omitempty"`
	ExpireAfterSeconds *int64 `bson:"expireAfterSeconds,omitempty"`
}

// desiredIndex is the part of an IndexModel the reconciler compares.
type desiredIndex struct {
	Name   string
	Sig    string
	Unique bool
	TTL    *int64
}

type action int

const (
	actionCreate action = iota
	actionReuse
	actionRename
	actionRebuild
)

func (a action) String() string {
	switch a {
	case actionCreate:
		return "create"
	case actionReuse:
		return "reuse"
	case actionRename:
		return "rename"
	case actionRebuild:
		return "rebuild"
	}
	return "unknown"
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{Sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.Name = *m.Options.Name
		}
		if m.Options.Unique != nil {
			d.Unique = *m.Options.Unique
		}
		if m.Options.ExpireAfterSeconds != nil {
			ttl := int64(*m.Options.ExpireAfterSeconds)
			d.TTL = &ttl
		}
	}
	return d
}

func sameTTL(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// plan decides what to do with an index whose keys match want. found is
// false when no index has those keys.
func plan(ex existingIndex, found bool, want desiredIndex) action {
	if !found {
		return actionCreate
	}
	exUnique := ex.Unique != nil && *ex.Unique
	if exUnique != want.Unique || !sameTTL(ex.ExpireAfterSeconds, want.TTL) {
		return actionRebuild
	}
	if want.Name != "" && ex.Name != want.Name {
		return actionRename
	}
	return actionReuse
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listIndexes(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	var errs []string
	existing := listIndexes(ctx, coll, logger)

	for _, m := range models {
		want := describe(m)
		ex, found := existing[want.Sig]
		act := plan(ex, found, want)

		start := time.Now()
		logger.Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", want.Name),
			zap.String("keys", want.Sig),
			zap.Stringer("action", act))

		switch act {
		case actionReuse:
			continue
		case actionRename, actionRebuild:
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				logger.Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), want.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				errs = append(errs, fmt.Sprintf("%s(%s): options conflict with an existing index: %v", coll.Name(), want.Name, err))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), want.Name, err))
			}
			continue
		}
		logger.Info("index ready",
			zap.String("collection", coll.Name()),
			zap.String("name", want.Name),
			zap.Stringer("action", act),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
