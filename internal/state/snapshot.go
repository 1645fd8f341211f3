package state

import (
	"encoding/json"

	"foxden/internal/domain"
)

// Snapshot is the reduced projection of state that survives restarts.
// Dens, channels, messages and members are deliberately absent; they
// are rebuilt from the seed (or a future sync layer) on every load.
type Snapshot struct {
	CurrentUser           *domain.User `json:"currentUser,omitempty"`
	CurrentTheme          string       `json:"currentTheme,omitempty"`
	ActiveDen             string       `json:"activeDen,omitempty"`
	ActiveChannel         string       `json:"activeChannel,omitempty"`
	MembersSidebarVisible *bool        `json:"membersSidebarVisible,omitempty"`
}

// snapshotLocked serializes the persisted projection of the current
// state. Returns nil (and logs) when marshalling fails, which the
// writer treats as nothing-to-do.
func (s *Store) snapshotLocked() []byte {
	user, _ := s.data[KeyCurrentUser].(domain.User)
	theme, _ := s.data[KeyCurrentTheme].(string)
	activeDen, _ := s.data[KeyActiveDen].(string)
	activeChannel, _ := s.data[KeyActiveChannel].(string)
	sidebar, _ := s.data[KeyMembersSidebarVisible].(bool)

	snap := Snapshot{
		CurrentUser:           &user,
		CurrentTheme:          theme,
		ActiveDen:             activeDen,
		ActiveChannel:         activeChannel,
		MembersSidebarVisible: &sidebar,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Errorf("state: encoding snapshot: %v", err)
		return nil
	}
	return data
}

// applySnapshotLocked merges a persisted snapshot over the defaults.
// Fields absent from the snapshot keep their current values.
func (s *Store) applySnapshotLocked(raw []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return err
	}
	if snap.CurrentUser != nil {
		s.data[KeyCurrentUser] = *snap.CurrentUser
	}
	if snap.CurrentTheme != "" {
		s.data[KeyCurrentTheme] = snap.CurrentTheme
	}
	if snap.ActiveDen != "" {
		s.data[KeyActiveDen] = snap.ActiveDen
	}
	if snap.ActiveChannel != "" {
		s.data[KeyActiveChannel] = snap.ActiveChannel
	}
	if snap.MembersSidebarVisible != nil {
		s.data[KeyMembersSidebarVisible] = *snap.MembersSidebarVisible
	}
	return nil
}
