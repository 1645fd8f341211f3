package state

import "foxden/internal/domain"

// Derived accessors: pure reads over the current state. Each returns
// its zero value gracefully when the referenced id is missing.

// CurrentUser returns the local user.
func (s *Store) CurrentUser() domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, _ := s.data[KeyCurrentUser].(domain.User)
	return user
}

// Theme returns the current UI theme.
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	theme, _ := s.data[KeyCurrentTheme].(string)
	return theme
}

// Dens returns a copy of the den list.
func (s *Store) Dens() []domain.Den {
	s.mu.Lock()
	defer s.mu.Unlock()
	dens, _ := s.data[KeyDens].([]domain.Den)
	return append([]domain.Den(nil), dens...)
}

// ActiveDen resolves the active den, reporting false when unset or
// when the id no longer exists.
func (s *Store) ActiveDen() (domain.Den, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	denID, _ := s.data[KeyActiveDen].(string)
	if denID == "" {
		return domain.Den{}, false
	}
	return s.findDenLocked(denID)
}

// ActiveChannel resolves the active channel within the active den.
func (s *Store) ActiveChannel() (domain.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	denID, _ := s.data[KeyActiveDen].(string)
	channelID, _ := s.data[KeyActiveChannel].(string)
	if denID == "" || channelID == "" {
		return domain.Channel{}, false
	}
	return s.findChannelLocked(denID, channelID)
}

// ChannelsForDen returns a copy of the den's channel list, empty when
// the den is unknown. Order is list order; display sorting by
// position is the consumer's concern.
func (s *Store) ChannelsForDen(denID string) []domain.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	channels, _ := s.data[KeyChannels].(map[string][]domain.Channel)
	return append([]domain.Channel(nil), channels[denID]...)
}

// MessagesForChannel returns a copy of the channel's message history,
// empty when the channel has none.
func (s *Store) MessagesForChannel(channelID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages, _ := s.data[KeyMessages].(map[string][]domain.Message)
	return append([]domain.Message(nil), messages[channelID]...)
}

// MembersForDen returns a copy of the den's member roster.
func (s *Store) MembersForDen(denID string) []domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, _ := s.data[KeyMembers].(map[string][]domain.Member)
	return append([]domain.Member(nil), members[denID]...)
}

// ChannelsByDen returns a copy of the full channel map with copied
// slices, safe for a caller to rebuild and hand back to Set.
func (s *Store) ChannelsByDen() map[string][]domain.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	channels, _ := s.data[KeyChannels].(map[string][]domain.Channel)
	return copyChannelMap(channels)
}

// MessagesByChannel returns a copy of the full message map.
func (s *Store) MessagesByChannel() map[string][]domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages, _ := s.data[KeyMessages].(map[string][]domain.Message)
	out := make(map[string][]domain.Message, len(messages))
	for id, list := range messages {
		out[id] = append([]domain.Message(nil), list...)
	}
	return out
}

// MembersByDen returns a copy of the full member map.
func (s *Store) MembersByDen() map[string][]domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, _ := s.data[KeyMembers].(map[string][]domain.Member)
	out := make(map[string][]domain.Member, len(members))
	for id, list := range members {
		out[id] = append([]domain.Member(nil), list...)
	}
	return out
}

func (s *Store) findDenLocked(denID string) (domain.Den, bool) {
	dens, _ := s.data[KeyDens].([]domain.Den)
	for _, den := range dens {
		if den.ID == denID {
			return den, true
		}
	}
	return domain.Den{}, false
}

func (s *Store) findChannelLocked(denID, channelID string) (domain.Channel, bool) {
	channels, _ := s.data[KeyChannels].(map[string][]domain.Channel)
	for _, ch := range channels[denID] {
		if ch.ID == channelID {
			return ch, true
		}
	}
	return domain.Channel{}, false
}

func copyChannelMap(channels map[string][]domain.Channel) map[string][]domain.Channel {
	out := make(map[string][]domain.Channel, len(channels))
	for id, list := range channels {
		out[id] = append([]domain.Channel(nil), list...)
	}
	return out
}
