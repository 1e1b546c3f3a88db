package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/notifier/internal/models"
)

type serverTimestamp struct{}

// ServerTimestamp is a field value that the store replaces with its own clock on write
var ServerTimestamp = serverTimestamp{}

// DocumentStore defines the document operations the notifier needs from the backing store
type DocumentStore interface {
	// Get reads one document; models.ErrNotFound when it does not exist.
	Get(ctx context.Context, collection, id string) (models.Document, error)
	// Update sets fields on an existing document; models.ErrNotFound when it does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Add appends a document with a generated id and returns that id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Create writes a document under id only if none exists; models.ErrDuplicate otherwise.
	Create(ctx context.Context, collection, id string, data map[string]any) error
}
