package domain

// Presence values used for users and members.
const (
	StatusOnline  = "online"
	StatusIdle    = "idle"
	StatusDnd     = "dnd"
	StatusOffline = "offline"
)

// User is the local user's identity and presence.
type User struct {
	ID           string         `json:"id"`
	Username     string         `json:"username"`
	Tag          string         `json:"tag"`
	Avatar       string         `json:"avatar,omitempty"`
	Status       string         `json:"status"`
	CustomStatus string         `json:"customStatus"`
	Settings     map[string]any `json:"settings"`
}

// DefaultUser is the identity a fresh install starts with.
func DefaultUser() User {
	return User{
		ID:       "user-1",
		Username: "FoxUser",
		Tag:      "1234",
		Status:   StatusOnline,
		Settings: map[string]any{},
	}
}
