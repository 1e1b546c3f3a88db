package repositories

import (
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoID(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), MongoID(oid))
	assert.Equal(t, "p1", MongoID("p1"))
	assert.Equal(t, "", MongoID(nil))
	assert.Equal(t, "42", MongoID(int32(42)))
}

func TestIDFilter(t *testing.T) {
	assert.Equal(t, bson.M{"_id": "p1"}, idFilter("p1"))

	oid := primitive.NewObjectID()
	assert.Equal(t, bson.M{"_id": bson.M{"$in": bson.A{oid.Hex(), oid}}}, idFilter(oid.Hex()))
}

func TestNormalizeMongoDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	doc := NormalizeMongoDocument(bson.M{
		"_id":       oid,
		"likes":     bson.A{"u2", "u3"},
		"likeCount": int32(2),
		"createdAt": primitive.NewDateTimeFromTime(at),
		"meta":      bson.D{{Key: "source", Value: "app"}},
	})

	assert.Equal(t, oid.Hex(), doc["_id"])
	assert.Equal(t, []string{"u2", "u3"}, doc.StringSet("likes"))
	n, ok := doc.Int("likeCount")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, at, doc["createdAt"])
	assert.Equal(t, map[string]any{"source": "app"}, doc["meta"])

	assert.Nil(t, NormalizeMongoDocument(nil))
}

func TestFirestoreData(t *testing.T) {
	out := firestoreData(map[string]any{"timestamp": ServerTimestamp, "read": false})
	assert.Equal(t, firestore.ServerTimestamp, out["timestamp"])
	assert.Equal(t, false, out["read"])
}
