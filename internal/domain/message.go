package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType marks system messages (join notices, welcomes) apart
// from normal user messages.
type MessageType string

const (
	MessageNormal MessageType = "normal"
	MessageSystem MessageType = "system"
)

// Attachment is file metadata carried on a message. The client core
// never touches file contents, only this descriptor.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Message is a single chat entry. Identity fields are immutable after
// creation; only Content, Edited and Reactions change.
type Message struct {
	ID        string      `json:"id"`
	ChannelID string      `json:"channelId"`
	UserID    string      `json:"userId"`
	Username  string      `json:"username"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type,omitempty"`
	Edited    bool        `json:"edited,omitempty"`
	// Reactions maps emoji to the ordered set of user ids that reacted.
	Reactions  map[string][]string `json:"reactions,omitempty"`
	Attachment *Attachment         `json:"attachment,omitempty"`
}

// NewMessage builds a normal message with a generated id.
func NewMessage(channelID, userID, username, content string) Message {
	return Message{
		ID:        fmt.Sprintf("msg-%s", uuid.New().String()),
		ChannelID: channelID,
		UserID:    userID,
		Username:  username,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Type:      MessageNormal,
	}
}

// NewSystemMessage builds a system message attributed to the den bot.
func NewSystemMessage(channelID, content string) Message {
	m := NewMessage(channelID, "bot-1", "FoxDen Bot", content)
	m.Type = MessageSystem
	return m
}

// WithReaction returns a copy of the message with userID added to the
// emoji's reaction set, or removed when already present. The receiver
// is not modified.
func (m Message) WithReaction(emoji, userID string) Message {
	reactions := make(map[string][]string, len(m.Reactions))
	for e, users := range m.Reactions {
		reactions[e] = append([]string(nil), users...)
	}

	users := reactions[emoji]
	for i, id := range users {
		if id == userID {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(reactions, emoji)
			} else {
				reactions[emoji] = users
			}
			if len(reactions) == 0 {
				reactions = nil
			}
			m.Reactions = reactions
			return m
		}
	}

	reactions[emoji] = append(users, userID)
	m.Reactions = reactions
	return m
}
