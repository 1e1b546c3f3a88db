package models

// User document layout
const (
	CollectionUsers = "users"

	FieldFollowers = "followers"
	FieldUsername  = "username"
	FieldPhotoURL  = "photoUrl"
	FieldFCMToken  = "fcmToken"
)

// User is the typed view of a user snapshot as far as follow events need it
type User struct {
	ID        string
	Followers []string
}

// UserFromDocument builds a User view from a raw snapshot
func UserFromDocument(id string, d Document) User {
	return User{ID: id, Followers: d.StringSet(FieldFollowers)}
}
