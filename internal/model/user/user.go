package user

// User is the session-facing profile of the current person.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// Account is an element of the registered-user list. PasswordHash is only
// set for accounts created through the local auth provider.
type Account struct {
	User
	PasswordHash string `json:"passwordHash,omitempty"`
}

// Merge overlays incoming on existing field by field: a non-empty incoming
// value wins, otherwise the existing value is kept.
func Merge(existing, incoming User) User {
	return User{
		ID:           pick(incoming.ID, existing.ID),
		Email:        pick(incoming.Email, existing.Email),
		Name:         pick(incoming.Name, existing.Name),
		ProfilePhoto: pick(incoming.ProfilePhoto, existing.ProfilePhoto),
		CreatedAt:    pick(incoming.CreatedAt, existing.CreatedAt),
	}
}

func pick(incoming, existing string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}
