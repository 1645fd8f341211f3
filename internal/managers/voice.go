package managers

import (
	"foxden/internal/state"
	"foxden/pkg/logger"
)

// VoiceManager owns the simulated voice session: join/leave delegate
// to the store, and the flag toggles keep the mute/deafen coupling
// the UI expects. There is no media transport; connected-user counts
// are the only thing simulated.
type VoiceManager struct {
	store *state.Store
	log   *logger.Logger
}

func NewVoiceManager(store *state.Store, log *logger.Logger) *VoiceManager {
	m := &VoiceManager{store: store, log: log.Named("voice")}
	store.Subscribe(state.KeyConnectedToVoice, func(c state.Change) {
		connected, _ := c.New.(bool)
		if connected {
			m.log.Infof("joined voice channel %v", store.Get(state.KeyActiveVoiceChannel))
		} else {
			m.log.Infof("left voice channel")
		}
	})
	return m
}

func (m *VoiceManager) Join(channelID string) {
	m.store.JoinVoiceChannel(channelID)
}

func (m *VoiceManager) Leave() {
	m.store.LeaveVoiceChannel()
}

// ToggleMute flips the mic. Unmuting while deafened also undeafens,
// since a deafened session is implicitly muted.
func (m *VoiceManager) ToggleMute() {
	muted, _ := m.store.Get(state.KeyMicMuted).(bool)
	deafened, _ := m.store.Get(state.KeyDeafened).(bool)
	if muted && deafened {
		m.store.Update(map[string]any{
			state.KeyMicMuted: false,
			state.KeyDeafened: false,
		}, true)
		return
	}
	m.store.Set(state.KeyMicMuted, !muted, true)
}

// ToggleDeafen flips deafen; deafening forces the mic muted.
func (m *VoiceManager) ToggleDeafen() {
	deafened, _ := m.store.Get(state.KeyDeafened).(bool)
	if deafened {
		m.store.Set(state.KeyDeafened, false, true)
		return
	}
	m.store.Update(map[string]any{
		state.KeyDeafened: true,
		state.KeyMicMuted: true,
	}, true)
}

func (m *VoiceManager) ToggleVideo() {
	enabled, _ := m.store.Get(state.KeyVideoEnabled).(bool)
	m.store.Set(state.KeyVideoEnabled, !enabled, true)
}

func (m *VoiceManager) ToggleScreenShare() {
	enabled, _ := m.store.Get(state.KeyScreenShareEnabled).(bool)
	m.store.Set(state.KeyScreenShareEnabled, !enabled, true)
}
