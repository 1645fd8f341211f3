package domain

import "time"

// Member is a user's membership record scoped to one den.
type Member struct {
	ID       string    `json:"id"`
	DenID    string    `json:"denId"`
	Username string    `json:"username"`
	Tag      string    `json:"tag"`
	Avatar   string    `json:"avatar,omitempty"`
	Status   string    `json:"status"`
	IsOwner  bool      `json:"isOwner"`
	Roles    []string  `json:"roles"`
	JoinedAt time.Time `json:"joinedAt"`
}

// MemberFromUser builds the membership record a user gets when
// creating or joining a den.
func MemberFromUser(u User, denID string, isOwner bool) Member {
	roles := []string{}
	if isOwner {
		roles = append(roles, "admin")
	}
	return Member{
		ID:       u.ID,
		DenID:    denID,
		Username: u.Username,
		Tag:      u.Tag,
		Avatar:   u.Avatar,
		Status:   u.Status,
		IsOwner:  isOwner,
		Roles:    roles,
		JoinedAt: time.Now().UTC(),
	}
}
