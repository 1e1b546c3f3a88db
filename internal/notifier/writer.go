package notifier

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/pkg/validators"
)

// Writer validates and persists notification entities
type Writer struct {
	repo   repositories.NotificationRepository
	dedupe bool
}

// NewWriter creates a new Writer. With dedupe set, every entity carries a
// deterministic idempotency key and repeated transitions yield models.ErrDuplicate.
func NewWriter(repo repositories.NotificationRepository, dedupe bool) *Writer {
	return &Writer{repo: repo, dedupe: dedupe}
}

// Write persists n and returns the stored id
func (w *Writer) Write(ctx context.Context, n *models.Notification) (string, error) {
	if err := validators.Struct(n); err != nil {
		return "", fmt.Errorf("notification %s: %v: %w", n, err, models.ErrInvalidDocument)
	}
	n.Read = false
	if w.dedupe {
		n.IdempotencyKey = n.DeriveIdempotencyKey()
	}
	return w.repo.CreateNotification(ctx, n)
}
