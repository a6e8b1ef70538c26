package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection holds server-side sessions when the database store is used.
const MongoCollection = "http_sessions"

// sessionDoc is one stored session.
type sessionDoc struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	ExpiresAt time.Time `bson:"expires_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type mongoBackend struct {
	c *mongo.Collection
}

// NewMongoStore returns a Store that keeps session values in the
// http_sessions collection of db.
func NewMongoStore(db *mongo.Database, opts *sessions.Options, observe OpFunc, keyPairs ...[]byte) (*Store, error) {
	if db == nil {
		return nil, errNoBackend
	}
	return newStore(KindMongo, &mongoBackend{c: db.Collection(MongoCollection)}, opts, observe, keyPairs...), nil
}

func (b *mongoBackend) load(ctx context.Context, id string) (string, bool, error) {
	var doc sessionDoc
	// The TTL monitor runs about once a minute; filter expired documents here.
	err := b.c.FindOne(ctx, bson.M{
		"_id":        id,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return doc.Data, true, nil
}

func (b *mongoBackend) save(ctx context.Context, id, data string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := b.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"data":       data,
			"expires_at": now.Add(ttl),
			"updated_at": now,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (b *mongoBackend) delete(ctx context.Context, id string) error {
	_, err := b.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
