package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
)

// UserRepository defines the identity lookups the notifier performs on users
type UserRepository interface {
	GetIdentity(ctx context.Context, id string) (*models.Identity, error)
	ClearDeliveryToken(ctx context.Context, id string) error
}

// DocumentUserRepository implements UserRepository on a DocumentStore
type DocumentUserRepository struct {
	store DocumentStore
}

// NewDocumentUserRepository creates a new DocumentUserRepository
func NewDocumentUserRepository(store DocumentStore) *DocumentUserRepository {
	return &DocumentUserRepository{store: store}
}

// GetIdentity reads users/{id} as an identity record
func (r *DocumentUserRepository) GetIdentity(ctx context.Context, id string) (*models.Identity, error) {
	if id == "" {
		return nil, fmt.Errorf("empty user id: %w", models.ErrNotFound)
	}
	doc, err := r.store.Get(ctx, models.CollectionUsers, id)
	if err != nil {
		return nil, err
	}
	return models.IdentityFromDocument(id, doc), nil
}

// ClearDeliveryToken removes a push token the provider reported as unregistered
func (r *DocumentUserRepository) ClearDeliveryToken(ctx context.Context, id string) error {
	return r.store.Update(ctx, models.CollectionUsers, id, map[string]any{models.FieldFCMToken: ""})
}
