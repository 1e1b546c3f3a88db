package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements DocumentStore on MongoDB
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a new MongoStore
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// Get reads collection/id
func (s *MongoStore) Get(ctx context.Context, collection, id string) (models.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, idFilter(id)).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s/%s: %w", collection, id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return NormalizeMongoDocument(raw), nil
}

// Update sets the given top-level fields on collection/id
func (s *MongoStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	set := bson.M{}
	now := bson.M{}
	for k, v := range fields {
		if v == ServerTimestamp {
			now[k] = true
			continue
		}
		set[k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(now) > 0 {
		update["$currentDate"] = now
	}
	if len(update) == 0 {
		return nil
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, idFilter(id), update)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, models.ErrNotFound)
	}
	return nil
}

// Add appends data to collection under a new ObjectID
func (s *MongoStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := primitive.NewObjectID()
	if _, err := s.insertIfAbsent(ctx, collection, id, data); err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return id.Hex(), nil
}

// Create writes collection/id, failing with models.ErrDuplicate if it already exists
func (s *MongoStore) Create(ctx context.Context, collection, id string, data map[string]any) error {
	inserted, err := s.insertIfAbsent(ctx, collection, id, data)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s/%s: %w", collection, id, models.ErrDuplicate)
		}
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	if !inserted {
		return fmt.Errorf("%s/%s: %w", collection, id, models.ErrDuplicate)
	}
	return nil
}

// insertIfAbsent upserts with an aggregation pipeline so the write is a single
// atomic round trip that leaves an existing document untouched and lets the
// server stamp ServerTimestamp fields with $$NOW.
func (s *MongoStore) insertIfAbsent(ctx context.Context, collection string, id any, data map[string]any) (bool, error) {
	set := bson.M{}
	for k, v := range data {
		if v == ServerTimestamp {
			set[k] = bson.M{"$ifNull": bson.A{"$" + k, "$$NOW"}}
			continue
		}
		set[k] = bson.M{"$ifNull": bson.A{"$" + k, bson.M{"$literal": v}}}
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// idFilter matches string ids as well as ObjectIDs in their hex form
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

// MongoID renders a document key as the string id used by the notifier
func MongoID(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// NormalizeMongoDocument converts BSON container types into the plain Go
// types the rest of the notifier works with.
func NormalizeMongoDocument(raw bson.M) models.Document {
	if raw == nil {
		return nil
	}
	doc := make(models.Document, len(raw))
	for k, v := range raw {
		doc[k] = normalizeMongoValue(v)
	}
	return doc
}

func normalizeMongoValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		return map[string]any(NormalizeMongoDocument(val))
	case bson.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = normalizeMongoValue(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeMongoValue(item)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(val.T), 0).UTC()
	case int32:
		return int64(val)
	default:
		return v
	}
}
