package models

// ClickActionFlutter is the deep-link marker the mobile client routes on
const ClickActionFlutter = "FLUTTER_NOTIFICATION_CLICK"

// Correlation is the data linking a push message back to what triggered it
type Correlation struct {
	ActorID     string
	ActorName   string
	ContentID   string
	CommentText string
}

// PushPayload is a provider-neutral push message
type PushPayload struct {
	Title string
	Body  string
	Data  map[string]string
}

// NewPushPayload builds the kind-specific push message
func NewPushPayload(kind Kind, c Correlation) PushPayload {
	name := c.ActorName
	if name == "" {
		name = DefaultDisplayName
	}

	p := PushPayload{
		Data: map[string]string{
			FieldType:           string(kind),
			kind.ActorIDField(): c.ActorID,
			"click_action":      ClickActionFlutter,
		},
	}
	switch kind {
	case KindLike:
		p.Title = "New Like! ❤️"
		p.Body = Message(KindLike, name)
	case KindFollow:
		p.Title = "New Follower! 👤"
		p.Body = Message(KindFollow, name)
	case KindComment:
		p.Title = "New Comment! 💬"
		p.Body = name + ": " + c.CommentText
	default:
		p.Title = "New Activity"
		p.Body = Message(kind, name)
	}
	if kind != KindFollow && c.ContentID != "" {
		p.Data[FieldPostID] = c.ContentID
	}
	return p
}
