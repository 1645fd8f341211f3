package managers

import (
	"fmt"

	"foxden/internal/state"
	foxerr "foxden/pkg/errors"
	"foxden/pkg/logger"
)

// UserManager owns the local user's identity and presence. Presence
// changes are mirrored into the member roster of every den the user
// appears in, so sidebars update without their own sync logic.
type UserManager struct {
	store *state.Store
	log   *logger.Logger
}

func NewUserManager(store *state.Store, log *logger.Logger) *UserManager {
	m := &UserManager{store: store, log: log.Named("user")}
	store.Subscribe(state.KeyCurrentUser, func(c state.Change) {
		m.log.Debugf("current user updated")
	})
	return m
}

var validStatuses = map[string]bool{
	"online": true, "idle": true, "dnd": true, "offline": true,
}

// SetStatus updates the user's presence.
func (m *UserManager) SetStatus(status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("status %q: %w", status, foxerr.ErrInvalidInput)
	}
	user := m.store.CurrentUser()
	user.Status = status
	m.store.Set(state.KeyCurrentUser, user, true)
	m.mirrorPresence(user.ID, status)
	return nil
}

// SetCustomStatus updates the free-form status line.
func (m *UserManager) SetCustomStatus(text string) {
	user := m.store.CurrentUser()
	user.CustomStatus = text
	m.store.Set(state.KeyCurrentUser, user, true)
}

// Rename changes the displayed username.
func (m *UserManager) Rename(username string) error {
	if username == "" {
		return fmt.Errorf("username: %w", foxerr.ErrInvalidInput)
	}
	user := m.store.CurrentUser()
	user.Username = username
	m.store.Set(state.KeyCurrentUser, user, true)
	return nil
}

// UpdateSettings merges entries into the user's settings map.
func (m *UserManager) UpdateSettings(updates map[string]any) {
	user := m.store.CurrentUser()
	settings := make(map[string]any, len(user.Settings)+len(updates))
	for k, v := range user.Settings {
		settings[k] = v
	}
	for k, v := range updates {
		settings[k] = v
	}
	user.Settings = settings
	m.store.Set(state.KeyCurrentUser, user, true)
}

// mirrorPresence rewrites the user's status in every den roster.
func (m *UserManager) mirrorPresence(userID, status string) {
	members := m.store.MembersByDen()
	changed := false
	for denID, roster := range members {
		for i, member := range roster {
			if member.ID == userID && member.Status != status {
				members[denID][i].Status = status
				changed = true
			}
		}
	}
	if changed {
		m.store.Set(state.KeyMembers, members, true)
	}
}
