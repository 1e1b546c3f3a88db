package models

// PostUpdatedEvent carries the before/after snapshots of posts/{postId}
type PostUpdatedEvent struct {
	EventID string
	PostID  string
	Before  Document
	After   Document
}

// UserUpdatedEvent carries the before/after snapshots of users/{userId}
type UserUpdatedEvent struct {
	EventID string
	UserID  string
	Before  Document
	After   Document
}

// CommentCreatedEvent carries the created snapshot of posts/{postId}/comments/{commentId}
type CommentCreatedEvent struct {
	EventID   string
	PostID    string
	CommentID string
	Value     Document
}
