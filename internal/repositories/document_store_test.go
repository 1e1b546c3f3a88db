package repositories

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory DocumentStore
type memoryStore struct {
	docs map[string]map[string]map[string]any
	seq  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: map[string]map[string]map[string]any{}}
}

func (s *memoryStore) collection(name string) map[string]map[string]any {
	c, ok := s.docs[name]
	if !ok {
		c = map[string]map[string]any{}
		s.docs[name] = c
	}
	return c
}

func (s *memoryStore) Get(_ context.Context, collection, id string) (models.Document, error) {
	doc, ok := s.collection(collection)[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, models.ErrNotFound)
	}
	return models.Document(doc), nil
}

func (s *memoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	doc, ok := s.collection(collection)[id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, models.ErrNotFound)
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (s *memoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	s.seq++
	id := "auto-" + strconv.Itoa(s.seq)
	return id, s.Create(ctx, collection, id, data)
}

func (s *memoryStore) Create(_ context.Context, collection, id string, data map[string]any) error {
	c := s.collection(collection)
	if _, ok := c[id]; ok {
		return fmt.Errorf("%s/%s: %w", collection, id, models.ErrDuplicate)
	}
	c[id] = data
	return nil
}

func TestDocumentUserRepository(t *testing.T) {
	store := newMemoryStore()
	store.collection(models.CollectionUsers)["u1"] = map[string]any{
		"username": "alice",
		"photoUrl": "https://img/alice.jpg",
		"fcmToken": "tok",
	}
	repo := NewDocumentUserRepository(store)
	ctx := context.Background()

	identity, err := repo.GetIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, &models.Identity{ID: "u1", DisplayName: "alice", AvatarURL: "https://img/alice.jpg", DeliveryToken: "tok"}, identity)

	_, err = repo.GetIdentity(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = repo.GetIdentity(ctx, "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, repo.ClearDeliveryToken(ctx, "u1"))
	identity, err = repo.GetIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, identity.HasDeliveryToken())
}

func TestDocumentPostRepository(t *testing.T) {
	store := newMemoryStore()
	store.collection(models.CollectionPosts)["p1"] = map[string]any{
		"uid":   "u1",
		"likes": []any{"u2", "u3"},
	}
	repo := NewDocumentPostRepository(store)
	ctx := context.Background()

	post, err := repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "u1", post.OwnerID)
	assert.Nil(t, post.LikeCount)

	require.NoError(t, repo.SetLikeCount(ctx, "p1", 2))
	post, err = repo.GetPost(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, post.LikeCount)
	assert.Equal(t, 2, *post.LikeCount)

	assert.ErrorIs(t, repo.SetLikeCount(ctx, "gone", 1), models.ErrNotFound)
}

func TestDocumentNotificationRepository(t *testing.T) {
	store := newMemoryStore()
	repo := NewDocumentNotificationRepository(store)
	ctx := context.Background()
	actor := &models.Identity{ID: "u2", DisplayName: "alice"}

	t.Run("generated id", func(t *testing.T) {
		n := models.NewLikeNotification(models.Post{ID: "p1", OwnerID: "u1"}, actor)
		id, err := repo.CreateNotification(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, id, n.ID)

		stored := store.collection(models.CollectionNotifications)[id]
		assert.Equal(t, ServerTimestamp, stored[models.FieldTimestamp])
		assert.Equal(t, "like", stored[models.FieldType])
		assert.Equal(t, "u1", stored[models.FieldRecipientID])
		assert.Equal(t, false, stored[models.FieldRead])
	})

	t.Run("idempotency key", func(t *testing.T) {
		n := models.NewFollowNotification("u1", actor)
		n.IdempotencyKey = n.DeriveIdempotencyKey()

		id, err := repo.CreateNotification(ctx, n)
		require.NoError(t, err)
		assert.Equal(t, n.IdempotencyKey, id)

		again := models.NewFollowNotification("u1", actor)
		again.IdempotencyKey = again.DeriveIdempotencyKey()
		_, err = repo.CreateNotification(ctx, again)
		assert.ErrorIs(t, err, models.ErrDuplicate)
	})
}
