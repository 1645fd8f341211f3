package managers

import (
	"fmt"

	"foxden/internal/domain"
	"foxden/internal/state"
	foxerr "foxden/pkg/errors"
	"foxden/pkg/logger"
)

// ChatManager owns message flow for the open chat view. It follows
// the active channel and keeps a narrow subscription on that
// channel's message key, so it never re-scans the whole message map
// when some other channel changes.
type ChatManager struct {
	store *state.Store
	log   *logger.Logger

	unwatch state.UnsubscribeFunc
}

func NewChatManager(store *state.Store, log *logger.Logger) *ChatManager {
	m := &ChatManager{store: store, log: log.Named("chat")}
	store.Subscribe(state.KeyActiveChannel, func(c state.Change) {
		channelID, _ := c.New.(string)
		m.watchChannel(channelID)
	})
	return m
}

// watchChannel moves the narrow message subscription from the
// previous channel to channelID.
func (m *ChatManager) watchChannel(channelID string) {
	if m.unwatch != nil {
		m.unwatch()
		m.unwatch = nil
	}
	if channelID == "" {
		return
	}
	m.unwatch = m.store.Subscribe(state.MessagesKey(channelID), func(c state.Change) {
		if list, ok := c.New.([]domain.Message); ok {
			m.log.Debugf("channel %s now has %d messages", channelID, len(list))
		}
	})
}

// SendMessage posts a message from the current user into the active
// channel.
func (m *ChatManager) SendMessage(content string, attachment *domain.Attachment) (domain.Message, error) {
	if content == "" && attachment == nil {
		return domain.Message{}, fmt.Errorf("empty message: %w", foxerr.ErrInvalidInput)
	}
	channel, ok := m.store.ActiveChannel()
	if !ok {
		return domain.Message{}, fmt.Errorf("no active channel: %w", foxerr.ErrNotFound)
	}
	if channel.Type != domain.ChannelText {
		return domain.Message{}, fmt.Errorf("cannot post to voice channel: %w", foxerr.ErrInvalidInput)
	}

	user := m.store.CurrentUser()
	msg := domain.NewMessage(channel.ID, user.ID, user.Username, content)
	msg.Attachment = attachment
	m.store.AddMessage(channel.ID, msg)
	return msg, nil
}

// EditMessage replaces a message's content and marks it edited. Only
// the author may edit.
func (m *ChatManager) EditMessage(channelID, messageID, content string) error {
	if content == "" {
		return fmt.Errorf("empty content: %w", foxerr.ErrInvalidInput)
	}
	msg, ok := m.findMessage(channelID, messageID)
	if !ok {
		return fmt.Errorf("message %s: %w", messageID, foxerr.ErrNotFound)
	}
	if msg.UserID != m.store.CurrentUser().ID {
		return fmt.Errorf("edit message %s: %w", messageID, foxerr.ErrForbidden)
	}
	msg.Content = content
	msg.Edited = true
	m.store.ReplaceMessage(channelID, msg)
	return nil
}

// DeleteMessage removes a message. Only the author may delete.
func (m *ChatManager) DeleteMessage(channelID, messageID string) error {
	msg, ok := m.findMessage(channelID, messageID)
	if !ok {
		return fmt.Errorf("message %s: %w", messageID, foxerr.ErrNotFound)
	}
	if msg.UserID != m.store.CurrentUser().ID {
		return fmt.Errorf("delete message %s: %w", messageID, foxerr.ErrForbidden)
	}
	m.store.RemoveMessage(channelID, messageID)
	return nil
}

// ToggleReaction adds the current user to the emoji's reaction set,
// or removes them when already present.
func (m *ChatManager) ToggleReaction(channelID, messageID, emoji string) error {
	if emoji == "" {
		return fmt.Errorf("empty emoji: %w", foxerr.ErrInvalidInput)
	}
	msg, ok := m.findMessage(channelID, messageID)
	if !ok {
		return fmt.Errorf("message %s: %w", messageID, foxerr.ErrNotFound)
	}
	m.store.ReplaceMessage(channelID, msg.WithReaction(emoji, m.store.CurrentUser().ID))
	return nil
}

func (m *ChatManager) findMessage(channelID, messageID string) (domain.Message, bool) {
	for _, msg := range m.store.MessagesForChannel(channelID) {
		if msg.ID == messageID {
			return msg, true
		}
	}
	return domain.Message{}, false
}
