// Package state holds all mutable application data behind a uniform
// get/set/subscribe interface. There is one logical writer (the UI
// event flow); every mutation goes through Set, Update or one of the
// named operations so that notification fan-out and persistence
// scheduling are never bypassed.
package state

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"foxden/internal/domain"
	"foxden/internal/storage"
	"foxden/pkg/logger"
)

// maxNotifyDepth breaks runaway subscriber recursion (a callback that
// unconditionally re-sets its own key). Single-level re-entrancy is
// allowed and unaffected.
const maxNotifyDepth = 8

type subscription struct {
	id uint64
	fn Callback
}

// Store is the application state container. Construct one per
// process with New and share it by reference with the managers.
type Store struct {
	mu          sync.Mutex
	data        map[string]any
	subs        map[string][]subscription
	nextSubID   uint64
	initialized bool

	backend  storage.Backend
	stateKey string
	writer   *snapshotWriter
	log      *logger.Logger

	notifyDepth int32
}

// New creates a store bound to a persistence backend. The store is
// usable immediately but empty; call Init to load the snapshot and
// seed first-run data.
func New(backend storage.Backend, stateKey string, log *logger.Logger) *Store {
	s := &Store{
		data:     defaultData(),
		subs:     make(map[string][]subscription),
		backend:  backend,
		stateKey: stateKey,
		log:      log,
	}
	s.writer = newSnapshotWriter(backend, stateKey, log)
	return s
}

// defaultData is the state of a store before Init, mirroring a fresh
// install with nothing persisted.
func defaultData() map[string]any {
	return map[string]any{
		KeyInitialized:           false,
		KeyCurrentTheme:          ThemeDark,
		KeyCurrentUser:           domain.DefaultUser(),
		KeyActiveDen:             "",
		KeyActiveChannel:         "",
		KeyActiveVoiceChannel:    "",
		KeySettingsOpen:          false,
		KeyActiveSettingsTab:     "account",
		KeyMembersSidebarVisible: true,
		KeyMicMuted:              false,
		KeyDeafened:              false,
		KeyVideoEnabled:          false,
		KeyScreenShareEnabled:    false,
		KeyConnectedToVoice:      false,
		KeyDens:                  []domain.Den{},
		KeyChannels:              map[string][]domain.Channel{},
		KeyMessages:              map[string][]domain.Message{},
		KeyMembers:               map[string][]domain.Member{},
		KeyFriends:               []domain.User{},
		KeyDirectMessages:        []domain.Message{},
		KeyNotifications:         []string{},
	}
}

// Init loads the persisted snapshot, seeds first-run data when no
// dens exist, and notifies "init" subscribers with the full state.
// Load failures are logged and leave the store on defaults; Init
// itself never fails. Callers must not invoke Init twice; a second
// call is ignored.
func (s *Store) Init(ctx context.Context) map[string]any {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		s.log.Warnf("state: Init called twice, ignoring")
		return s.State()
	}
	s.mu.Unlock()

	raw, err := s.backend.Get(ctx, s.stateKey)
	if err != nil {
		s.log.Errorf("state: loading snapshot from %s: %v", s.backend.Name(), err)
	}

	s.mu.Lock()
	if len(raw) > 0 {
		if err := s.applySnapshotLocked(raw); err != nil {
			s.log.Errorf("state: decoding snapshot: %v", err)
		}
	}
	if dens, _ := s.data[KeyDens].([]domain.Den); len(dens) == 0 {
		s.applySeedLocked(Seed())
	}
	s.data[KeyInitialized] = true
	s.initialized = true
	snapshot := s.stateCopyLocked()
	targets := s.collectSubsLocked(KeyInit)
	s.mu.Unlock()

	s.dispatch(Change{Key: KeyInit, New: snapshot}, targets)
	return snapshot
}

// Get returns the current value for a top-level field, or nil for an
// unknown key. It never fails.
func (s *Store) Get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

// State returns a shallow copy of the full state map. Collection
// values are treated as immutable by convention; callers must not
// modify them in place.
func (s *Store) State() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateCopyLocked()
}

// Set replaces a field, notifies subscribers on the key and on the
// wildcard, and (when persist is true) schedules a snapshot write.
// The write is fire-and-forget: backend failures are logged, never
// surfaced, and never roll back the in-memory state.
func (s *Store) Set(key string, value any, persist bool) {
	s.mu.Lock()
	old := s.data[key]
	s.data[key] = value
	targets := s.collectSubsLocked(key)
	var snap []byte
	if persist {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	s.dispatch(Change{Key: key, New: value, Old: old}, targets)
	if persist {
		s.writer.Enqueue(snap)
	}
}

// Update applies several fields at once. Subscribers are notified per
// key, in sorted key order so batches behave deterministically, but
// the snapshot is written once for the whole batch, not once per key.
func (s *Store) Update(updates map[string]any, persist bool) {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := updates[key]
		s.mu.Lock()
		old := s.data[key]
		s.data[key] = value
		targets := s.collectSubsLocked(key)
		s.mu.Unlock()
		s.dispatch(Change{Key: key, New: value, Old: old}, targets)
	}

	if persist {
		s.mu.Lock()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.writer.Enqueue(snap)
	}
}

// Subscribe registers a callback for mutations of key, or of every
// key when key is Wildcard. Subscribers on the same key run in
// registration order. The returned function removes exactly this
// registration; it is idempotent and safe to call mid-notification.
func (s *Store) Subscribe(key string, fn Callback) UnsubscribeFunc {
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[key] = append(s.subs[key], subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			list := s.subs[key]
			for i, sub := range list {
				if sub.id == id {
					next := make([]subscription, 0, len(list)-1)
					next = append(next, list[:i]...)
					next = append(next, list[i+1:]...)
					if len(next) == 0 {
						delete(s.subs, key)
					} else {
						s.subs[key] = next
					}
					return
				}
			}
		})
	}
}

// Flush blocks until every scheduled snapshot write has reached the
// backend. Used on shutdown and after theme changes, which must
// survive an immediate crash.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close drains pending snapshot writes and stops the writer. The
// store remains readable afterwards; further persist requests are
// dropped.
func (s *Store) Close() {
	s.writer.Close()
}

// collectSubsLocked snapshots the callbacks to run for key: specific
// subscribers first, then wildcard. Iterating a copy keeps
// unsubscribe-during-notification from skipping or double-invoking
// anyone.
func (s *Store) collectSubsLocked(key string) []Callback {
	specific := s.subs[key]
	wild := s.subs[Wildcard]
	if key == Wildcard {
		wild = nil
	}
	targets := make([]Callback, 0, len(specific)+len(wild))
	for _, sub := range specific {
		targets = append(targets, sub.fn)
	}
	for _, sub := range wild {
		targets = append(targets, sub.fn)
	}
	return targets
}

func (s *Store) dispatch(change Change, targets []Callback) {
	if len(targets) == 0 {
		return
	}
	depth := atomic.AddInt32(&s.notifyDepth, 1)
	defer atomic.AddInt32(&s.notifyDepth, -1)
	if depth > maxNotifyDepth {
		s.log.Errorf("state: notification depth %d exceeded on %q, dropping fan-out", maxNotifyDepth, change.Key)
		return
	}
	for _, fn := range targets {
		s.invoke(fn, change)
	}
}

// invoke isolates one callback so a panicking subscriber cannot break
// the fan-out for the rest.
func (s *Store) invoke(fn Callback, change Change) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("state: subscriber panic on %q: %v", change.Key, r)
		}
	}()
	fn(change)
}

func (s *Store) stateCopyLocked() map[string]any {
	snapshot := make(map[string]any, len(s.data))
	for key, value := range s.data {
		snapshot[key] = value
	}
	return snapshot
}
