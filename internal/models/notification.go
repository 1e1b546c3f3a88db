package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what triggered a notification
type Kind string

const (
	KindLike    Kind = "like"
	KindFollow  Kind = "follow"
	KindComment Kind = "comment"
)

// Notification store layout
const (
	CollectionNotifications = "notifications"

	FieldType        = "type"
	FieldRecipientID = "userId"
	FieldMessage     = "message"
	FieldTimestamp   = "timestamp"
	FieldRead        = "read"
	FieldPostImage   = "postImageUrl"
	FieldCommentBody = "commentText"
)

// idempotencyNamespace scopes the UUIDv5 keys derived for notifications
var idempotencyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("notifier/notifications"))

// Notification is a durable notification entity for one recipient
type Notification struct {
	ID               string
	Kind             Kind   `validate:"required,oneof=like follow comment"`
	RecipientID      string `validate:"required"`
	ActorID          string `validate:"required,nefield=RecipientID"`
	ActorDisplayName string `validate:"required"`
	ActorAvatarURL   string
	ContentID        string `validate:"required_unless=Kind follow"`
	ContentImageURL  string
	CommentID        string
	CommentText      string
	Message          string `validate:"required"`
	Read             bool
	IdempotencyKey   string
	CreatedAt        time.Time
}

// NewLikeNotification builds the notification for actor liking post
func NewLikeNotification(post Post, actor *Identity) *Notification {
	n := newNotification(KindLike, post.OwnerID, actor)
	n.ContentID = post.ID
	n.ContentImageURL = post.ImageURL
	return n
}

// NewFollowNotification builds the notification for actor following userID
func NewFollowNotification(userID string, actor *Identity) *Notification {
	return newNotification(KindFollow, userID, actor)
}

// NewCommentNotification builds the notification for actor commenting on post
func NewCommentNotification(post Post, comment Comment, actor *Identity) *Notification {
	n := newNotification(KindComment, post.OwnerID, actor)
	n.ContentID = post.ID
	n.ContentImageURL = post.ImageURL
	n.CommentID = comment.ID
	n.CommentText = comment.Text
	return n
}

func newNotification(kind Kind, recipientID string, actor *Identity) *Notification {
	return &Notification{
		Kind:             kind,
		RecipientID:      recipientID,
		ActorID:          actor.ID,
		ActorDisplayName: actor.Name(),
		ActorAvatarURL:   actor.AvatarURL,
		Message:          Message(kind, actor.Name()),
		Read:             false,
	}
}

// Message renders the feed text for a notification kind
func Message(kind Kind, actorName string) string {
	switch kind {
	case KindLike:
		return actorName + " liked your post"
	case KindFollow:
		return actorName + " started following you"
	case KindComment:
		return actorName + " commented on your post"
	default:
		return actorName + " interacted with you"
	}
}

// ActorFieldPrefix is the per-kind prefix of the actor fields in the stored layout
func (k Kind) ActorFieldPrefix() string {
	switch k {
	case KindLike:
		return "liker"
	case KindFollow:
		return "follower"
	case KindComment:
		return "commenter"
	default:
		return "actor"
	}
}

// ActorIDField returns the stored field holding the actor id, e.g. "likerUid"
func (k Kind) ActorIDField() string {
	return k.ActorFieldPrefix() + "Uid"
}

// Fields returns the stored document layout without the server timestamp
func (n *Notification) Fields() map[string]any {
	prefix := n.Kind.ActorFieldPrefix()
	fields := map[string]any{
		FieldType:             string(n.Kind),
		FieldRecipientID:      n.RecipientID,
		n.Kind.ActorIDField(): n.ActorID,
		prefix + "Username":   n.ActorDisplayName,
		prefix + "PhotoUrl":   n.ActorAvatarURL,
		FieldMessage:          n.Message,
		FieldRead:             n.Read,
	}
	if n.Kind == KindLike || n.Kind == KindComment {
		fields[FieldPostID] = n.ContentID
		fields[FieldPostImage] = n.ContentImageURL
	}
	if n.Kind == KindComment {
		fields[FieldCommentBody] = n.CommentText
	}
	return fields
}

// DeriveIdempotencyKey returns a stable key for the transition this
// notification represents. The same actor, recipient and content always map
// to the same key.
func (n *Notification) DeriveIdempotencyKey() string {
	parts := []string{string(n.Kind), n.ActorID, n.RecipientID, n.ContentID, n.CommentID}
	return uuid.NewSHA1(idempotencyNamespace, []byte(strings.Join(parts, "\x00"))).String()
}

// Correlation returns the data the push dispatcher needs for this notification
func (n *Notification) Correlation() Correlation {
	return Correlation{
		ActorID:     n.ActorID,
		ActorName:   n.ActorDisplayName,
		ContentID:   n.ContentID,
		CommentText: n.CommentText,
	}
}

// String identifies the notification in logs
func (n *Notification) String() string {
	return fmt.Sprintf("%s %s->%s", n.Kind, n.ActorID, n.RecipientID)
}

// NotificationRecord is the notification row of the PostgreSQL sink
type NotificationRecord struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Type            string    `json:"type" gorm:"size:30;index"` // like, comment, follow
	ActorID         string    `json:"actor_id" gorm:"size:128;index"`
	RecipientID     string    `json:"recipient_id" gorm:"size:128;index"`
	TargetID        string    `json:"target_id"`                  // post ID or user ID
	TargetType      string    `json:"target_type" gorm:"size:20"` // post, user
	PreviewImageURL string    `json:"preview_image_url"`
	ActorName       string    `json:"actor_name"`
	ActorAvatarURL  string    `json:"actor_avatar_url"`
	CommentID       string    `json:"comment_id,omitempty"`
	CommentText     string    `json:"comment_text,omitempty"`
	Message         string    `json:"message"`
	IsRead          bool      `json:"is_read" gorm:"default:false;index"`
	IdempotencyKey  *string   `json:"-" gorm:"size:36;uniqueIndex"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime:false;not null;default:now();index"`
}

// TableName keeps the table name shared with the feed reader
func (NotificationRecord) TableName() string {
	return "notifications"
}

// NewNotificationRecord maps a notification onto its PostgreSQL row.
// CreatedAt is left zero so the database assigns it.
func NewNotificationRecord(n *Notification) *NotificationRecord {
	rec := &NotificationRecord{
		Type:            string(n.Kind),
		ActorID:         n.ActorID,
		RecipientID:     n.RecipientID,
		TargetID:        n.ContentID,
		TargetType:      "post",
		PreviewImageURL: n.ContentImageURL,
		ActorName:       n.ActorDisplayName,
		ActorAvatarURL:  n.ActorAvatarURL,
		CommentID:       n.CommentID,
		CommentText:     n.CommentText,
		Message:         n.Message,
		IsRead:          n.Read,
	}
	if n.Kind == KindFollow {
		rec.TargetID = n.RecipientID
		rec.TargetType = "user"
	}
	if n.IdempotencyKey != "" {
		key := n.IdempotencyKey
		rec.IdempotencyKey = &key
	}
	return rec
}
