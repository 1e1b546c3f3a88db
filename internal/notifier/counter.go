package notifier

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
)

// CounterUpdater keeps a post's likeCount equal to the size of its likes set
type CounterUpdater struct {
	posts repositories.PostRepository
}

// NewCounterUpdater creates a new CounterUpdater
func NewCounterUpdater(posts repositories.PostRepository) *CounterUpdater {
	return &CounterUpdater{posts: posts}
}

// Update derives the count from the committed after snapshot and writes it
// back. The write is skipped when the snapshot already holds that count, so
// the counter's own update does not retrigger another write.
func (u *CounterUpdater) Update(ctx context.Context, after models.Post) (count int, written bool, err error) {
	count = len(after.Likes)
	if after.LikeCount != nil && *after.LikeCount == count {
		return count, false, nil
	}
	if err := u.posts.SetLikeCount(ctx, after.ID, count); err != nil {
		return count, false, fmt.Errorf("set like count on post %s: %w", after.ID, err)
	}
	return count, true, nil
}
