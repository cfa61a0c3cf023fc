package countdown

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// ChangeType indicates which operation changed the state.
type ChangeType int

const (
	// ChangeTypeDuration indicates a new duration was selected.
	ChangeTypeDuration ChangeType = iota
	// ChangeTypeTick indicates a decrement.
	ChangeTypeTick
	// ChangeTypeCompleted indicates the decrement that reached zero.
	ChangeTypeCompleted
	// ChangeTypePause indicates the pause flag flipped.
	ChangeTypePause
	// ChangeTypeReset indicates a reset.
	ChangeTypeReset
	// ChangeTypeHydrated indicates the hydration flag changed.
	ChangeTypeHydrated
	// ChangeTypeReloaded indicates another process changed the persisted snapshot.
	ChangeTypeReloaded
	// ChangeTypePresets indicates a preset duration was added or removed.
	ChangeTypePresets
)

// String returns the name of the change type.
func (c ChangeType) String() string {
	switch c {
	case ChangeTypeDuration:
		return "duration"
	case ChangeTypeTick:
		return "tick"
	case ChangeTypeCompleted:
		return "completed"
	case ChangeTypePause:
		return "pause"
	case ChangeTypeReset:
		return "reset"
	case ChangeTypeHydrated:
		return "hydrated"
	case ChangeTypeReloaded:
		return "reloaded"
	case ChangeTypePresets:
		return "presets"
	default:
		return "unknown"
	}
}

// ChangeEvent signals a state change to subscribers.
type ChangeEvent struct {
	Type  ChangeType
	State State
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovered persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultMinutes sets the duration applied when hydration finds nothing persisted.
func WithDefaultMinutes(minutes int) Option {
	return func(s *Store) {
		s.defaultMinutes = max(0, minutes)
	}
}

// WithAllowedDurations sets the presets used when none are persisted.
func WithAllowedDurations(minutes []int) Option {
	return func(s *Store) {
		presets := make([]int, 0, len(minutes))
		for _, m := range minutes {
			if m > 0 && !slices.Contains(presets, m) {
				presets = append(presets, m)
			}
		}
		slices.Sort(presets)
		s.allowedDurations = presets
		s.state.AllowedDurations = slices.Clone(presets)
	}
}

// Store owns the countdown state. All mutation goes through its methods and
// ends by handing the new snapshot to the Persister.
type Store struct {
	mu    sync.RWMutex
	state State

	persister        Persister
	logger           *slog.Logger
	defaultMinutes   int
	allowedDurations []int

	hydrateOnce sync.Once
	hydrateErr  error

	// Snapshot known to be on disk, used to tell our own writes from others'
	lastSaved Snapshot
	hasSaved  bool

	subscribers []chan ChangeEvent
}

// NewStore creates a Store with zero-value state. If persister is nil,
// snapshots are not persisted.
func NewStore(persister Persister, opts ...Option) *Store {
	s := &Store{
		state:            State{Snapshot: DefaultSnapshot()},
		persister:        persister,
		logger:           slog.Default(),
		allowedDurations: slices.Clone(DefaultAllowedDurations),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Projection returns the presentation view of the current state.
func (s *Store) Projection() Projection {
	return s.State().Projection()
}

// SetDuration selects a new duration in minutes. Negative values are clamped to zero.
// The countdown is paused and any pending completion flag is cleared.
func (s *Store) SetDuration(minutes int) State {
	minutes = max(0, minutes)
	return s.mutate(ChangeTypeDuration, func(st *State) {
		st.SelectedMinutes = minutes
		st.RemainingSeconds = minutes * 60
		st.IsPaused = true
		st.JustCompleted = false
	})
}

// Decrement removes one second from the countdown. It is a no-op while paused
// and never goes below zero. JustCompleted is set only by the decrement that
// reaches zero.
func (s *Store) Decrement() State {
	s.mu.Lock()
	s.syncLocked(context.Background())
	if s.state.IsPaused {
		st := s.state
		s.mu.Unlock()
		return st
	}

	prev := s.state.RemainingSeconds
	next := max(0, prev-1)
	s.state.JustCompleted = next == 0 && prev > 0
	s.state.RemainingSeconds = next

	change := ChangeTypeTick
	if s.state.JustCompleted {
		change = ChangeTypeCompleted
	}
	return s.commitLocked(change)
}

// TogglePause flips the pause flag.
func (s *Store) TogglePause() State {
	return s.mutate(ChangeTypePause, func(st *State) {
		st.IsPaused = !st.IsPaused
	})
}

// Reset restores the selected duration and pauses the countdown.
func (s *Store) Reset() State {
	return s.mutate(ChangeTypeReset, func(st *State) {
		st.RemainingSeconds = st.SelectedMinutes * 60
		st.IsPaused = true
		st.JustCompleted = false
	})
}

// AddAllowedDuration adds a preset duration in minutes, keeping the presets
// sorted. Non-positive and already present durations are ignored.
func (s *Store) AddAllowedDuration(minutes int) State {
	s.mu.Lock()
	s.syncLocked(context.Background())
	if minutes <= 0 || s.state.HasPreset(minutes) {
		st := s.state
		s.mu.Unlock()
		return st
	}

	presets := append(slices.Clone(s.state.AllowedDurations), minutes)
	slices.Sort(presets)
	s.state.AllowedDurations = presets
	return s.commitLocked(ChangeTypePresets)
}

// RemoveAllowedDuration removes a preset duration. Removing the selected
// duration clears the selection but leaves the remaining time alone.
func (s *Store) RemoveAllowedDuration(minutes int) State {
	s.mu.Lock()
	s.syncLocked(context.Background())
	if !s.state.HasPreset(minutes) {
		st := s.state
		s.mu.Unlock()
		return st
	}

	presets := make([]int, 0, len(s.state.AllowedDurations))
	for _, d := range s.state.AllowedDurations {
		if d != minutes {
			presets = append(presets, d)
		}
	}
	s.state.AllowedDurations = presets
	if s.state.SelectedMinutes == minutes {
		s.state.SelectedMinutes = 0
	}
	return s.commitLocked(ChangeTypePresets)
}

// SetHydrated sets the hydration flag that gates ticking.
func (s *Store) SetHydrated(hydrated bool) {
	s.mu.Lock()
	if s.state.IsHydrated == hydrated {
		s.mu.Unlock()
		return
	}
	s.state.IsHydrated = hydrated
	st := s.state
	s.notifyChange(ChangeEvent{Type: ChangeTypeHydrated, State: st})
	s.mu.Unlock()
}

// Hydrate loads the persisted snapshot once and marks the store hydrated.
// Missing or unreadable data falls back to defaults; the load error, if any,
// is returned for logging. Later calls return the first result without loading again.
func (s *Store) Hydrate(ctx context.Context) error {
	s.hydrateOnce.Do(func() {
		s.hydrateErr = s.hydrate(ctx)
	})
	return s.hydrateErr
}

func (s *Store) hydrate(ctx context.Context) error {
	snapshot := s.defaultSnapshot()
	var loadErr error

	if s.persister != nil {
		loaded, err := s.persister.Load(ctx)
		loaded = s.withPresets(loaded)
		switch {
		case err == nil && loaded.Valid():
			snapshot = loaded
			s.mu.Lock()
			s.lastSaved, s.hasSaved = loaded, true
			s.mu.Unlock()
		case err == nil:
			s.logger.Warn("persisted countdown out of range, using defaults", "snapshot", loaded)
		case errors.Is(err, ErrNotFound):
			s.logger.Debug("no persisted countdown, using defaults", "minutes", s.defaultMinutes)
		case errors.Is(err, ErrCorrupt):
			s.logger.Warn("persisted countdown unreadable, using defaults", "error", err)
			snapshot = s.withPresets(Snapshot{IsPaused: true})
		default:
			loadErr = err
		}
	}

	s.mu.Lock()
	s.state.Snapshot = snapshot
	s.state.JustCompleted = false
	s.mu.Unlock()

	s.SetHydrated(true)
	return loadErr
}

// Reload re-reads the persisted snapshot and applies it if another process
// changed it since this store last wrote it. It reports whether the state
// changed. Before hydration it does nothing. Missing or corrupt data leaves
// the in-memory state alone, so a half-written file never wipes it.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	changed, err := s.syncLocked(ctx)
	s.mu.Unlock()
	return changed, err
}

// syncLocked adopts a snapshot another process persisted since this store
// last wrote or read one. Mutations call it first so the next save does not
// overwrite that change. Must be called with s.mu held.
func (s *Store) syncLocked(ctx context.Context) (bool, error) {
	if s.persister == nil || !s.state.IsHydrated {
		return false, nil
	}

	loaded, err := s.persister.Load(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return false, nil
		case errors.Is(err, ErrCorrupt):
			s.logger.Debug("ignoring unreadable countdown on disk", "error", err)
			return false, nil
		default:
			s.logger.Debug("failed to check persisted countdown", "error", err)
			return false, err
		}
	}
	loaded = s.withPresets(loaded)

	if !loaded.Valid() || (s.hasSaved && loaded.Equal(s.lastSaved)) || loaded.Equal(s.state.Snapshot) {
		return false, nil
	}

	s.state.Snapshot = loaded
	s.state.JustCompleted = false
	s.lastSaved, s.hasSaved = loaded, true
	s.notifyChange(ChangeEvent{Type: ChangeTypeReloaded, State: s.state})

	s.logger.Debug("countdown changed on disk, reloaded", "snapshot", loaded)
	return true, nil
}

// withPresets fills in the default presets for snapshots persisted without any.
func (s *Store) withPresets(snap Snapshot) Snapshot {
	if snap.AllowedDurations == nil {
		snap.AllowedDurations = slices.Clone(s.allowedDurations)
	}
	return snap
}

func (s *Store) defaultSnapshot() Snapshot {
	return Snapshot{
		SelectedMinutes:  s.defaultMinutes,
		RemainingSeconds: s.defaultMinutes * 60,
		IsPaused:         true,
		AllowedDurations: slices.Clone(s.allowedDurations),
	}
}

// mutate applies fn under the write lock on top of any external change,
// then persists and notifies.
func (s *Store) mutate(change ChangeType, fn func(*State)) State {
	s.mu.Lock()
	s.syncLocked(context.Background())
	fn(&s.state)
	return s.commitLocked(change)
}

// commitLocked persists the snapshot and notifies subscribers, then releases the lock.
// Saving under the lock keeps snapshots on disk in mutation order.
func (s *Store) commitLocked(change ChangeType) State {
	st := s.state
	if s.persister != nil {
		if err := s.persister.Save(st.Snapshot); err != nil {
			s.logger.Warn("failed to persist countdown", "change", change.String(), "error", err)
		} else {
			s.lastSaved, s.hasSaved = st.Snapshot, true
		}
	}
	s.notifyChange(ChangeEvent{Type: change, State: st})
	s.mu.Unlock()
	return st
}

// Subscribe returns a channel that receives change events.
// Slow subscribers miss events rather than blocking the store.
func (s *Store) Subscribe() <-chan ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeEvent, 10)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch <-chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// notifyChange must be called with s.mu held.
func (s *Store) notifyChange(event ChangeEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
