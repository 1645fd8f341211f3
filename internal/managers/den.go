// Package managers holds the six controllers that sit between the
// shell surface and the state store: den, channel, chat, voice, user
// and settings. Managers never mutate nested state collections in
// place; every change is rebuilt copy-on-write and handed back
// through the store so notification fan-out and persistence always
// run.
package managers

import (
	"fmt"

	"foxden/internal/domain"
	"foxden/internal/state"
	foxerr "foxden/pkg/errors"
	"foxden/pkg/logger"
)

// DenManager owns den lifecycle: creation with default channels,
// deletion with full cascade, and leaving as a non-owner.
type DenManager struct {
	store *state.Store
	log   *logger.Logger
}

func NewDenManager(store *state.Store, log *logger.Logger) *DenManager {
	m := &DenManager{store: store, log: log.Named("den")}
	store.Subscribe(state.KeyActiveDen, func(c state.Change) {
		m.log.Debugf("active den -> %v", c.New)
	})
	return m
}

// CreateDen creates a den owned by the current user, with a default
// text channel, an off-topic channel and a voice lounge, an owner
// membership record and a welcome message, then activates it.
func (m *DenManager) CreateDen(name, icon, description string) (domain.Den, error) {
	if name == "" {
		return domain.Den{}, fmt.Errorf("den name: %w", foxerr.ErrInvalidInput)
	}
	user := m.store.CurrentUser()
	den := domain.NewDen(name, icon, description, user.ID)

	defaults := []domain.Channel{
		domain.NewChannel(den.ID, "general", domain.ChannelText, "Text Channels", 0),
		domain.NewChannel(den.ID, "off-topic", domain.ChannelText, "Text Channels", 1),
		domain.NewChannel(den.ID, "Voice Lounge", domain.ChannelVoice, "Voice Channels", 0),
	}

	m.store.Set(state.KeyDens, append(m.store.Dens(), den), true)

	channels := m.store.ChannelsByDen()
	channels[den.ID] = defaults
	m.store.Set(state.KeyChannels, channels, true)

	members := m.store.MembersByDen()
	members[den.ID] = []domain.Member{domain.MemberFromUser(user, den.ID, true)}
	m.store.Set(state.KeyMembers, members, true)

	welcome := domain.NewSystemMessage(defaults[0].ID,
		fmt.Sprintf("Welcome to %s! This den was just created.", den.Name))
	m.store.AddMessage(defaults[0].ID, welcome)

	m.store.SetActiveDen(den.ID)
	m.log.Infof("created den %s (%s)", den.Name, den.ID)
	return den, nil
}

// DeleteDen removes a den and cascades: its channels, its member
// roster and the message history of every channel it owned. Only the
// owner may delete. The first remaining den (if any) becomes active.
func (m *DenManager) DeleteDen(denID string) error {
	den, ok := m.findDen(denID)
	if !ok {
		return fmt.Errorf("den %s: %w", denID, foxerr.ErrNotFound)
	}
	if m.store.CurrentUser().ID != den.OwnerID {
		return fmt.Errorf("delete den %s: %w", denID, foxerr.ErrForbidden)
	}
	m.removeDen(denID)
	m.log.Infof("deleted den %s", denID)
	return nil
}

// LeaveDen removes the den from the local den list along with its
// cached channels, members and messages. Owners cannot leave their
// own den; they must delete it.
func (m *DenManager) LeaveDen(denID string) error {
	den, ok := m.findDen(denID)
	if !ok {
		return fmt.Errorf("den %s: %w", denID, foxerr.ErrNotFound)
	}
	if m.store.CurrentUser().ID == den.OwnerID {
		return fmt.Errorf("leave den %s: owner must delete instead: %w", denID, foxerr.ErrForbidden)
	}
	m.removeDen(denID)
	m.log.Infof("left den %s", denID)
	return nil
}

func (m *DenManager) findDen(denID string) (domain.Den, bool) {
	for _, den := range m.store.Dens() {
		if den.ID == denID {
			return den, true
		}
	}
	return domain.Den{}, false
}

// removeDen is the shared cascade for delete and leave.
func (m *DenManager) removeDen(denID string) {
	dens := make([]domain.Den, 0)
	for _, den := range m.store.Dens() {
		if den.ID != denID {
			dens = append(dens, den)
		}
	}
	m.store.Set(state.KeyDens, dens, true)

	channels := m.store.ChannelsByDen()
	orphaned := channels[denID]
	delete(channels, denID)
	m.store.Set(state.KeyChannels, channels, true)

	members := m.store.MembersByDen()
	delete(members, denID)
	m.store.Set(state.KeyMembers, members, true)

	// Purge history of every channel the den owned so deleted dens do
	// not leak unreachable messages.
	messages := m.store.MessagesByChannel()
	for _, ch := range orphaned {
		delete(messages, ch.ID)
	}
	m.store.Set(state.KeyMessages, messages, true)

	if active, _ := m.store.Get(state.KeyActiveDen).(string); active == denID {
		if len(dens) > 0 {
			m.store.SetActiveDen(dens[0].ID)
		} else {
			m.store.Update(map[string]any{
				state.KeyActiveDen:     "",
				state.KeyActiveChannel: "",
			}, true)
		}
	}
}
