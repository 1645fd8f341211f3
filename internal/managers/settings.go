package managers

import (
	"foxden/internal/state"
	"foxden/pkg/logger"
)

// SettingsManager owns the settings panel state and the UI toggles
// that live outside any den.
type SettingsManager struct {
	store *state.Store
	log   *logger.Logger
}

func NewSettingsManager(store *state.Store, log *logger.Logger) *SettingsManager {
	m := &SettingsManager{store: store, log: log.Named("settings")}
	store.Subscribe(state.KeyCurrentTheme, func(c state.Change) {
		m.log.Infof("theme -> %v", c.New)
	})
	return m
}

// Open shows the settings panel on the given tab ("account" when
// empty).
func (m *SettingsManager) Open(tab string) {
	if tab == "" {
		tab = "account"
	}
	m.store.Update(map[string]any{
		state.KeySettingsOpen:      true,
		state.KeyActiveSettingsTab: tab,
	}, false)
}

func (m *SettingsManager) Close() {
	m.store.Set(state.KeySettingsOpen, false, false)
}

func (m *SettingsManager) SetTab(tab string) {
	m.store.Set(state.KeyActiveSettingsTab, tab, false)
}

// ToggleMembersSidebar flips sidebar visibility; this one UI flag is
// persisted.
func (m *SettingsManager) ToggleMembersSidebar() {
	visible, _ := m.store.Get(state.KeyMembersSidebarVisible).(bool)
	m.store.Set(state.KeyMembersSidebarVisible, !visible, true)
}

// ToggleTheme flips dark/light through the store's synchronous path.
func (m *SettingsManager) ToggleTheme() string {
	return m.store.ToggleTheme()
}
