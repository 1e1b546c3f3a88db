package models

// Post document layout
const (
	CollectionPosts = "posts"

	FieldOwnerID   = "uid"
	FieldPostURL   = "postUrl"
	FieldLikes     = "likes"
	FieldLikeCount = "likeCount"
)

// Post is the typed view of a post snapshot
type Post struct {
	ID        string
	OwnerID   string
	ImageURL  string
	Likes     []string
	LikeCount *int // nil when the snapshot has no likeCount yet
}

// PostFromDocument builds a Post view from a raw snapshot
func PostFromDocument(id string, d Document) Post {
	p := Post{
		ID:       id,
		OwnerID:  d.String(FieldOwnerID),
		ImageURL: d.String(FieldPostURL),
		Likes:    d.StringSet(FieldLikes),
	}
	if n, ok := d.Int(FieldLikeCount); ok {
		p.LikeCount = &n
	}
	return p
}
