package repositories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository defines the interface for persisting notifications
type NotificationRepository interface {
	// CreateNotification stores n and returns its id. With an idempotency key
	// set, an existing entity under that key yields models.ErrDuplicate.
	CreateNotification(ctx context.Context, n *models.Notification) (string, error)
}

// DocumentNotificationRepository stores notifications in the document store's notifications collection
type DocumentNotificationRepository struct {
	store DocumentStore
}

// NewDocumentNotificationRepository creates a new DocumentNotificationRepository
func NewDocumentNotificationRepository(store DocumentStore) *DocumentNotificationRepository {
	return &DocumentNotificationRepository{store: store}
}

// CreateNotification appends n with a server-assigned timestamp
func (r *DocumentNotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) (string, error) {
	data := n.Fields()
	data[models.FieldTimestamp] = ServerTimestamp

	if n.IdempotencyKey != "" {
		if err := r.store.Create(ctx, models.CollectionNotifications, n.IdempotencyKey, data); err != nil {
			return "", err
		}
		n.ID = n.IdempotencyKey
		return n.ID, nil
	}

	id, err := r.store.Add(ctx, models.CollectionNotifications, data)
	if err != nil {
		return "", err
	}
	n.ID = id
	return id, nil
}

// PostgresNotificationRepository stores notifications as rows in PostgreSQL
type PostgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// Migrate creates or updates the notifications table
func (r *PostgresNotificationRepository) Migrate() error {
	return r.db.AutoMigrate(&models.NotificationRecord{})
}

// CreateNotification inserts n; created_at comes from the column default
func (r *PostgresNotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) (string, error) {
	rec := models.NewNotificationRecord(n)

	tx := r.db.WithContext(ctx)
	if rec.IdempotencyKey != nil {
		tx = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		})
	}

	res := tx.Create(rec)
	if res.Error != nil {
		return "", fmt.Errorf("insert notification: %w", res.Error)
	}
	if res.RowsAffected == 0 && rec.IdempotencyKey != nil {
		return "", fmt.Errorf("notification %s: %w", *rec.IdempotencyKey, models.ErrDuplicate)
	}

	n.ID = strconv.FormatUint(uint64(rec.ID), 10)
	n.CreatedAt = rec.CreatedAt
	return n.ID, nil
}
