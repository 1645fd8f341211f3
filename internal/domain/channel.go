package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChannelType distinguishes text channels from voice channels.
type ChannelType string

const (
	ChannelText  ChannelType = "text"
	ChannelVoice ChannelType = "voice"
)

// DefaultCategory groups channels created without an explicit category.
const DefaultCategory = "General"

// Channel is a named sub-space within a den. A channel belongs to
// exactly one den and does not outlive it. ConnectedUsers is only
// meaningful for voice channels.
type Channel struct {
	ID             string      `json:"id"`
	DenID          string      `json:"denId"`
	Name           string      `json:"name"`
	Type           ChannelType `json:"type"`
	Position       int         `json:"position"`
	Category       string      `json:"category"`
	CreatedAt      time.Time   `json:"createdAt"`
	ConnectedUsers int         `json:"connectedUsers,omitempty"`
}

// NewChannel builds a channel with a generated id.
func NewChannel(denID, name string, typ ChannelType, category string, position int) Channel {
	if category == "" {
		category = DefaultCategory
	}
	return Channel{
		ID:        fmt.Sprintf("channel-%s", uuid.New().String()),
		DenID:     denID,
		Name:      name,
		Type:      typ,
		Position:  position,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
}
