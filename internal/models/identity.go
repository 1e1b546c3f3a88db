package models

// DefaultDisplayName stands in for users without a username
const DefaultDisplayName = "Someone"

// Identity is the display identity of a user as read from the identity store
type Identity struct {
	ID            string `validate:"required"`
	DisplayName   string
	AvatarURL     string
	DeliveryToken string
}

// IdentityFromDocument builds an Identity from a user document
func IdentityFromDocument(id string, d Document) *Identity {
	return &Identity{
		ID:            id,
		DisplayName:   d.String(FieldUsername),
		AvatarURL:     d.String(FieldPhotoURL),
		DeliveryToken: d.String(FieldFCMToken),
	}
}

// Name returns the display name, falling back to DefaultDisplayName
func (i *Identity) Name() string {
	if i == nil || i.DisplayName == "" {
		return DefaultDisplayName
	}
	return i.DisplayName
}

// HasDeliveryToken reports whether the user registered a push token
func (i *Identity) HasDeliveryToken() bool {
	return i != nil && i.DeliveryToken != ""
}
