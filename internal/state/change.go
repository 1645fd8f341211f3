package state

// Well-known top-level state keys. Get and Set accept arbitrary keys;
// these constants cover every field the store itself touches.
const (
	KeyInitialized           = "initialized"
	KeyCurrentTheme          = "currentTheme"
	KeyCurrentUser           = "currentUser"
	KeyActiveDen             = "activeDen"
	KeyActiveChannel         = "activeChannel"
	KeyActiveVoiceChannel    = "activeVoiceChannel"
	KeySettingsOpen          = "settingsOpen"
	KeyActiveSettingsTab     = "activeSettingsTab"
	KeyMembersSidebarVisible = "membersSidebarVisible"
	KeyMicMuted              = "micMuted"
	KeyDeafened              = "deafened"
	KeyVideoEnabled          = "videoEnabled"
	KeyScreenShareEnabled    = "screenShareEnabled"
	KeyConnectedToVoice      = "connectedToVoice"
	KeyDens                  = "dens"
	KeyChannels              = "channels"
	KeyMessages              = "messages"
	KeyMembers               = "members"
	KeyFriends               = "friends"
	KeyDirectMessages        = "directMessages"
	KeyNotifications         = "notifications"
)

// Wildcard subscribes to every mutation regardless of key.
const Wildcard = "*"

// KeyInit is notified once, after Init completes, with the full state.
const KeyInit = "init"

// Themes accepted for KeyCurrentTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// MessagesKey returns the narrow notification key for one channel's
// message list, e.g. "messages:channel-welcome". Broad subscribers
// watch KeyMessages; an open chat view watches only its channel.
func MessagesKey(channelID string) string {
	return KeyMessages + ":" + channelID
}

// Change describes a single state mutation. Subscribers on a specific
// key and on the wildcard both receive the same shape; wildcard
// subscribers rely on Key to tell mutations apart.
type Change struct {
	Key string `json:"key"`
	New any    `json:"newValue"`
	Old any    `json:"oldValue"`
}

// Callback is invoked synchronously, inline with the mutation. A
// callback that sets its own key recurses; the store breaks runaway
// recursion after a fixed depth.
type Callback func(Change)

// UnsubscribeFunc removes the callback it was returned for. It is
// idempotent and safe to call from inside a notification.
type UnsubscribeFunc func()
