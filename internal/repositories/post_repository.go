package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
)

// PostRepository defines the post operations the notifier performs
type PostRepository interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	SetLikeCount(ctx context.Context, id string, count int) error
}

// DocumentPostRepository implements PostRepository on a DocumentStore
type DocumentPostRepository struct {
	store DocumentStore
}

// NewDocumentPostRepository creates a new DocumentPostRepository
func NewDocumentPostRepository(store DocumentStore) *DocumentPostRepository {
	return &DocumentPostRepository{store: store}
}

// GetPost reads posts/{id}
func (r *DocumentPostRepository) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if id == "" {
		return nil, fmt.Errorf("empty post id: %w", models.ErrNotFound)
	}
	doc, err := r.store.Get(ctx, models.CollectionPosts, id)
	if err != nil {
		return nil, err
	}
	post := models.PostFromDocument(id, doc)
	return &post, nil
}

// SetLikeCount writes the derived like counter
func (r *DocumentPostRepository) SetLikeCount(ctx context.Context, id string, count int) error {
	return r.store.Update(ctx, models.CollectionPosts, id, map[string]any{models.FieldLikeCount: count})
}
