package state

import (
	"context"
	"time"

	"foxden/internal/domain"
)

// Mutating convenience operations. Each is sugar over Set/Update plus
// the cross-field consistency the UI relies on. Unknown ids are
// silent no-ops: navigation races between unmount and late callbacks
// are common and must not blow up.

// AddMessage appends a message to a channel's history, creating the
// history if absent, and fires two notifications: a broad one on
// "messages" with the whole map (channel-list unread indicators) and
// a narrow one on "messages:<channelID>" with just that channel's
// list (the open chat view). Message history is not persisted.
func (s *Store) AddMessage(channelID string, msg domain.Message) {
	s.mu.Lock()
	messages, _ := s.data[KeyMessages].(map[string][]domain.Message)
	next := make(map[string][]domain.Message, len(messages)+1)
	for id, list := range messages {
		next[id] = list
	}
	list := make([]domain.Message, 0, len(messages[channelID])+1)
	list = append(list, messages[channelID]...)
	list = append(list, msg)
	next[channelID] = list
	s.data[KeyMessages] = next

	broad := s.collectSubsLocked(KeyMessages)
	narrow := s.collectSubsLocked(MessagesKey(channelID))
	s.mu.Unlock()

	s.dispatch(Change{Key: KeyMessages, New: next}, broad)
	s.dispatch(Change{Key: MessagesKey(channelID), New: list}, narrow)
}

// ReplaceMessage swaps one message in a channel's history by id,
// firing the same dual notification as AddMessage. Used for edits,
// reaction toggles and similar in-place content changes. No-op when
// the channel or message is unknown.
func (s *Store) ReplaceMessage(channelID string, msg domain.Message) {
	s.mu.Lock()
	messages, _ := s.data[KeyMessages].(map[string][]domain.Message)
	old, ok := messages[channelID]
	if !ok {
		s.mu.Unlock()
		return
	}
	idx := -1
	for i, m := range old {
		if m.ID == msg.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	list := append([]domain.Message(nil), old...)
	list[idx] = msg
	next := make(map[string][]domain.Message, len(messages))
	for id, l := range messages {
		next[id] = l
	}
	next[channelID] = list
	s.data[KeyMessages] = next

	broad := s.collectSubsLocked(KeyMessages)
	narrow := s.collectSubsLocked(MessagesKey(channelID))
	s.mu.Unlock()

	s.dispatch(Change{Key: KeyMessages, New: next}, broad)
	s.dispatch(Change{Key: MessagesKey(channelID), New: list}, narrow)
}

// RemoveMessage deletes one message from a channel's history by id.
// No-op when unknown.
func (s *Store) RemoveMessage(channelID, messageID string) {
	s.mu.Lock()
	messages, _ := s.data[KeyMessages].(map[string][]domain.Message)
	old, ok := messages[channelID]
	if !ok {
		s.mu.Unlock()
		return
	}
	list := make([]domain.Message, 0, len(old))
	for _, m := range old {
		if m.ID != messageID {
			list = append(list, m)
		}
	}
	if len(list) == len(old) {
		s.mu.Unlock()
		return
	}
	next := make(map[string][]domain.Message, len(messages))
	for id, l := range messages {
		next[id] = l
	}
	next[channelID] = list
	s.data[KeyMessages] = next

	broad := s.collectSubsLocked(KeyMessages)
	narrow := s.collectSubsLocked(MessagesKey(channelID))
	s.mu.Unlock()

	s.dispatch(Change{Key: KeyMessages, New: next}, broad)
	s.dispatch(Change{Key: MessagesKey(channelID), New: list}, narrow)
}

// SetActiveDen switches the active den and selects its first text
// channel (list order, not position order) as the active channel.
// When the den has no text channel the active channel is cleared
// rather than left pointing into the previous den. Unknown denID is
// a no-op.
func (s *Store) SetActiveDen(denID string) {
	s.mu.Lock()
	_, ok := s.findDenLocked(denID)
	if !ok {
		s.mu.Unlock()
		return
	}
	channels, _ := s.data[KeyChannels].(map[string][]domain.Channel)
	firstText := ""
	for _, ch := range channels[denID] {
		if ch.Type == domain.ChannelText {
			firstText = ch.ID
			break
		}
	}
	s.mu.Unlock()

	s.Set(KeyActiveDen, denID, true)
	s.Set(KeyActiveChannel, firstText, true)
}

// SetActiveChannel switches the active channel within the active den.
// Selecting a voice channel joins it immediately; there is no
// preview-without-joining state. No-op when the den is unset or the
// channel does not belong to it.
func (s *Store) SetActiveChannel(channelID string) {
	s.mu.Lock()
	denID, _ := s.data[KeyActiveDen].(string)
	if denID == "" {
		s.mu.Unlock()
		return
	}
	ch, ok := s.findChannelLocked(denID, channelID)
	s.mu.Unlock()
	if !ok {
		return
	}

	s.Set(KeyActiveChannel, channelID, true)
	if ch.Type == domain.ChannelVoice {
		s.Set(KeyActiveVoiceChannel, channelID, true)
		s.Set(KeyConnectedToVoice, true, true)
	}
}

// JoinVoiceChannel joins a voice channel in the active den: resets
// all voice flags, marks the session connected and bumps the
// channel's connected-user count. No-op for unknown or non-voice
// channels.
func (s *Store) JoinVoiceChannel(channelID string) {
	s.mu.Lock()
	denID, _ := s.data[KeyActiveDen].(string)
	if denID == "" {
		s.mu.Unlock()
		return
	}
	ch, ok := s.findChannelLocked(denID, channelID)
	s.mu.Unlock()
	if !ok || ch.Type != domain.ChannelVoice {
		return
	}

	s.Update(map[string]any{
		KeyActiveVoiceChannel: channelID,
		KeyConnectedToVoice:   true,
		KeyMicMuted:           false,
		KeyDeafened:           false,
		KeyVideoEnabled:       false,
		KeyScreenShareEnabled: false,
	}, true)
	s.bumpConnectedUsers(channelID, +1)
}

// LeaveVoiceChannel leaves the current voice channel, decrementing
// its connected-user count (floored at zero) and clearing all voice
// flags. No-op when not in a voice channel.
func (s *Store) LeaveVoiceChannel() {
	s.mu.Lock()
	channelID, _ := s.data[KeyActiveVoiceChannel].(string)
	s.mu.Unlock()
	if channelID == "" {
		return
	}

	s.bumpConnectedUsers(channelID, -1)
	s.Update(map[string]any{
		KeyActiveVoiceChannel: "",
		KeyConnectedToVoice:   false,
		KeyMicMuted:           false,
		KeyDeafened:           false,
		KeyVideoEnabled:       false,
		KeyScreenShareEnabled: false,
	}, true)
}

// ToggleTheme flips between dark and light and flushes the snapshot
// synchronously. Theme is the one preference that must survive a
// crash immediately after the toggle.
func (s *Store) ToggleTheme() string {
	s.mu.Lock()
	theme, _ := s.data[KeyCurrentTheme].(string)
	s.mu.Unlock()

	next := ThemeLight
	if theme == ThemeLight {
		next = ThemeDark
	}
	s.Set(KeyCurrentTheme, next, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.writer.Flush(ctx); err != nil {
		s.log.Errorf("state: flushing theme change: %v", err)
	}
	return next
}

// bumpConnectedUsers adjusts a voice channel's connected-user count
// copy-on-write and notifies "channels" subscribers. The channel is
// searched across all dens so a den switch between join and leave
// still finds it.
func (s *Store) bumpConnectedUsers(channelID string, delta int) {
	s.mu.Lock()
	channels, _ := s.data[KeyChannels].(map[string][]domain.Channel)
	var next map[string][]domain.Channel
	for denID, list := range channels {
		for i, ch := range list {
			if ch.ID != channelID {
				continue
			}
			count := ch.ConnectedUsers + delta
			if count < 0 {
				count = 0
			}
			next = copyChannelMap(channels)
			next[denID][i].ConnectedUsers = count
			break
		}
		if next != nil {
			break
		}
	}
	if next == nil {
		s.mu.Unlock()
		return
	}
	s.data[KeyChannels] = next
	targets := s.collectSubsLocked(KeyChannels)
	s.mu.Unlock()

	s.dispatch(Change{Key: KeyChannels, New: next}, targets)
}
