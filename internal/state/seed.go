package state

import (
	"time"

	"foxden/internal/domain"
)

// SeedData is the fixed first-run dataset: one den, nine channels in
// three categories, six members and four welcome messages. It is only
// applied when no persisted dens exist.
type SeedData struct {
	Dens          []domain.Den
	Channels      map[string][]domain.Channel
	Members       map[string][]domain.Member
	Messages      map[string][]domain.Message
	ActiveDen     string
	ActiveChannel string
}

const (
	seedDenID          = "foxden-central"
	seedWelcomeChannel = "channel-welcome"
)

// Seed builds the bootstrap payload. Ids are stable across runs so a
// re-seeded install looks identical.
func Seed() SeedData {
	now := time.Now().UTC()

	den := domain.Den{
		ID:          seedDenID,
		Name:        "FoxDen Central",
		Icon:        "FD",
		OwnerID:     "user-1",
		Description: "Welcome to FoxDen Central! Your home for fox-themed discussion.",
		CreatedAt:   now,
	}

	text := func(id, name string, position int, category string) domain.Channel {
		return domain.Channel{
			ID: id, DenID: seedDenID, Name: name, Type: domain.ChannelText,
			Position: position, Category: category, CreatedAt: now,
		}
	}
	voice := func(id, name string, position, connected int) domain.Channel {
		return domain.Channel{
			ID: id, DenID: seedDenID, Name: name, Type: domain.ChannelVoice,
			Position: position, Category: "Voice Dens", CreatedAt: now,
			ConnectedUsers: connected,
		}
	}
	channels := []domain.Channel{
		text("channel-welcome", "welcome", 0, "Information Trails"),
		text("channel-announcements", "announcements", 1, "Information Trails"),
		text("channel-rules", "rules", 2, "Information Trails"),
		text("channel-general", "general", 0, "Den Chats"),
		text("channel-memes", "memes", 1, "Den Chats"),
		text("channel-gaming", "gaming", 2, "Den Chats"),
		voice("channel-general-voice", "General Burrow", 0, 2),
		voice("channel-gaming-voice", "Gaming Den", 1, 3),
		voice("channel-music-voice", "Music Lounge", 2, 0),
	}

	member := func(id, username, tag, status string, isOwner bool, roles ...string) domain.Member {
		if roles == nil {
			roles = []string{}
		}
		return domain.Member{
			ID: id, DenID: seedDenID, Username: username, Tag: tag,
			Status: status, IsOwner: isOwner, Roles: roles, JoinedAt: now,
		}
	}
	members := []domain.Member{
		member("user-1", "FoxUser", "1234", domain.StatusOnline, true, "admin"),
		member("user-2", "FoxTail", "5678", domain.StatusOnline, false, "moderator"),
		member("user-3", "RedFox", "9012", domain.StatusOnline, false),
		member("user-4", "ArcticFox", "3456", domain.StatusOnline, false),
		member("user-5", "FennecFox", "7890", domain.StatusOffline, false),
		member("user-6", "GrayFox", "1122", domain.StatusOffline, false),
	}

	msg := func(id, userID, username, content string, age time.Duration, typ domain.MessageType) domain.Message {
		return domain.Message{
			ID: id, ChannelID: seedWelcomeChannel, UserID: userID,
			Username: username, Content: content,
			Timestamp: now.Add(-age), Type: typ,
		}
	}
	messages := []domain.Message{
		msg("msg-1", "bot-1", "FoxDen Bot",
			"Welcome to FoxDen Central! This is a minimalistic, fox-themed chat platform for communities. Browse channels on the left, chat here, and see members on the right!",
			0, domain.MessageSystem),
		msg("msg-2", "user-2", "FoxTail",
			"The fox theme looks fantastic! I love how the dens replace servers.",
			5*time.Minute, domain.MessageNormal),
		msg("msg-3", "user-3", "RedFox",
			"The orange accents look great with the dark mode. Can we see what light mode looks like?",
			200*time.Second, domain.MessageNormal),
		msg("msg-4", "user-4", "ArcticFox",
			"I like how clean and minimalistic everything is. The UI is much more streamlined than Discord!",
			100*time.Second, domain.MessageNormal),
	}

	return SeedData{
		Dens:          []domain.Den{den},
		Channels:      map[string][]domain.Channel{seedDenID: channels},
		Members:       map[string][]domain.Member{seedDenID: members},
		Messages:      map[string][]domain.Message{seedWelcomeChannel: messages},
		ActiveDen:     seedDenID,
		ActiveChannel: seedWelcomeChannel,
	}
}

func (s *Store) applySeedLocked(seed SeedData) {
	s.data[KeyDens] = seed.Dens
	s.data[KeyChannels] = seed.Channels
	s.data[KeyMembers] = seed.Members
	s.data[KeyMessages] = seed.Messages
	// Keep a restored selection when it still resolves; seed ids are
	// stable so a previous session's channel usually survives.
	denID, _ := s.data[KeyActiveDen].(string)
	if _, ok := s.findDenLocked(denID); !ok {
		s.data[KeyActiveDen] = seed.ActiveDen
		s.data[KeyActiveChannel] = seed.ActiveChannel
		return
	}
	channelID, _ := s.data[KeyActiveChannel].(string)
	if _, ok := s.findChannelLocked(denID, channelID); !ok {
		s.data[KeyActiveChannel] = seed.ActiveChannel
	}
}
