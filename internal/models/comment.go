package models

// Comment document layout. Comments live under posts/{postId}/comments; stores
// without subcollections keep them in a flat collection keyed by FieldPostID.
const (
	CollectionComments = "comments"

	FieldCommentText = "text"
	FieldPostID      = "postId"
)

// Comment is the typed view of a created comment
type Comment struct {
	ID       string
	PostID   string
	AuthorID string
	Text     string
}

// CommentFromDocument builds a Comment view from a raw snapshot
func CommentFromDocument(postID, id string, d Document) Comment {
	return Comment{
		ID:       id,
		PostID:   postID,
		AuthorID: d.String(FieldOwnerID),
		Text:     d.String(FieldCommentText),
	}
}
