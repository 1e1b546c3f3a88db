package notifier

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/pkg/validators"
)

// Resolver turns opaque ids into identity records and post views.
// A missing record is reported as models.ErrNotFound, which callers treat as a silent stop.
type Resolver struct {
	users repositories.UserRepository
	posts repositories.PostRepository
}

// NewResolver creates a new Resolver
func NewResolver(users repositories.UserRepository, posts repositories.PostRepository) *Resolver {
	return &Resolver{users: users, posts: posts}
}

// ResolveIdentity looks up the identity record of a user
func (r *Resolver) ResolveIdentity(ctx context.Context, id string) (*models.Identity, error) {
	identity, err := r.users.GetIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validators.Struct(identity); err != nil {
		return nil, fmt.Errorf("identity %s: %v: %w", id, err, models.ErrInvalidDocument)
	}
	return identity, nil
}

// ResolvePost looks up a post, typically the parent of a new comment
func (r *Resolver) ResolvePost(ctx context.Context, id string) (*models.Post, error) {
	return r.posts.GetPost(ctx, id)
}
