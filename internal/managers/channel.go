package managers

import (
	"fmt"
	"strings"

	"foxden/internal/domain"
	"foxden/internal/state"
	foxerr "foxden/pkg/errors"
	"foxden/pkg/logger"
)

// ChannelManager owns channel lifecycle within dens.
type ChannelManager struct {
	store *state.Store
	log   *logger.Logger
}

func NewChannelManager(store *state.Store, log *logger.Logger) *ChannelManager {
	m := &ChannelManager{store: store, log: log.Named("channel")}
	store.Subscribe(state.KeyActiveChannel, func(c state.Change) {
		m.log.Debugf("active channel -> %v", c.New)
	})
	return m
}

// CreateChannel adds a channel to a den. Text channel names are
// normalized the way the UI displays them (lowercase, dashes for
// spaces). Position is assigned after the last channel in the same
// category.
func (m *ChannelManager) CreateChannel(denID, name string, typ domain.ChannelType, category string) (domain.Channel, error) {
	if name == "" {
		return domain.Channel{}, fmt.Errorf("channel name: %w", foxerr.ErrInvalidInput)
	}
	if typ != domain.ChannelText && typ != domain.ChannelVoice {
		return domain.Channel{}, fmt.Errorf("channel type %q: %w", typ, foxerr.ErrInvalidInput)
	}
	found := false
	for _, den := range m.store.Dens() {
		if den.ID == denID {
			found = true
			break
		}
	}
	if !found {
		return domain.Channel{}, fmt.Errorf("den %s: %w", denID, foxerr.ErrNotFound)
	}

	if typ == domain.ChannelText {
		name = strings.ReplaceAll(strings.ToLower(name), " ", "-")
	}
	if category == "" {
		category = domain.DefaultCategory
	}

	channels := m.store.ChannelsByDen()
	position := 0
	for _, ch := range channels[denID] {
		if ch.Category == category && ch.Position >= position {
			position = ch.Position + 1
		}
	}

	channel := domain.NewChannel(denID, name, typ, category, position)
	channels[denID] = append(channels[denID], channel)
	m.store.Set(state.KeyChannels, channels, true)
	m.log.Infof("created %s channel #%s in den %s", typ, channel.Name, denID)
	return channel, nil
}

// DeleteChannel removes a channel and purges its message history.
// When the deleted channel was active, the den's first remaining text
// channel takes its place; when it was the joined voice channel, the
// voice session is torn down first so counters stay symmetric.
func (m *ChannelManager) DeleteChannel(denID, channelID string) error {
	channels := m.store.ChannelsByDen()
	list := channels[denID]
	idx := -1
	for i, ch := range list {
		if ch.ID == channelID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("channel %s in den %s: %w", channelID, denID, foxerr.ErrNotFound)
	}

	if active, _ := m.store.Get(state.KeyActiveVoiceChannel).(string); active == channelID {
		m.store.LeaveVoiceChannel()
		channels = m.store.ChannelsByDen()
		list = channels[denID]
	}

	remaining := make([]domain.Channel, 0, len(list)-1)
	for _, ch := range list {
		if ch.ID != channelID {
			remaining = append(remaining, ch)
		}
	}
	channels[denID] = remaining
	m.store.Set(state.KeyChannels, channels, true)

	messages := m.store.MessagesByChannel()
	delete(messages, channelID)
	m.store.Set(state.KeyMessages, messages, true)

	if active, _ := m.store.Get(state.KeyActiveChannel).(string); active == channelID {
		next := ""
		for _, ch := range remaining {
			if ch.Type == domain.ChannelText {
				next = ch.ID
				break
			}
		}
		m.store.Set(state.KeyActiveChannel, next, true)
	}

	m.log.Infof("deleted channel %s from den %s", channelID, denID)
	return nil
}
