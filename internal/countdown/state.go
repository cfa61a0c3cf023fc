package countdown

import "slices"

// DefaultAllowedDurations are the preset durations, in minutes, offered before
// any have been added or removed.
var DefaultAllowedDurations = []int{15, 25, 30, 45, 60, 90, 120}

// Snapshot is the persisted subset of the countdown state.
// JustCompleted and IsHydrated are transient and never written.
type Snapshot struct {
	SelectedMinutes  int  `json:"selected_minutes"`
	RemainingSeconds int  `json:"remaining_seconds"`
	IsPaused         bool `json:"is_paused"`

	// AllowedDurations are the preset durations in minutes, sorted ascending.
	// Nil means none were persisted; empty means every preset was removed.
	AllowedDurations []int `json:"allowed_durations"`
}

// State is the full countdown state as observed by callers.
type State struct {
	Snapshot

	// JustCompleted is true only for the state produced by the decrement
	// that moved RemainingSeconds from >0 to 0.
	JustCompleted bool

	// IsHydrated stays false until the persisted snapshot has been loaded.
	IsHydrated bool
}

// DefaultSnapshot returns the zero-value snapshot used before anything was persisted.
func DefaultSnapshot() Snapshot {
	return Snapshot{IsPaused: true, AllowedDurations: slices.Clone(DefaultAllowedDurations)}
}

// Valid reports whether a loaded snapshot can be trusted.
func (s Snapshot) Valid() bool {
	if s.SelectedMinutes < 0 || s.RemainingSeconds < 0 {
		return false
	}
	for _, d := range s.AllowedDurations {
		if d <= 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two snapshots hold the same values.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.SelectedMinutes == o.SelectedMinutes &&
		s.RemainingSeconds == o.RemainingSeconds &&
		s.IsPaused == o.IsPaused &&
		slices.Equal(s.AllowedDurations, o.AllowedDurations)
}

// Equal reports whether two states hold the same values.
func (s State) Equal(o State) bool {
	return s.Snapshot.Equal(o.Snapshot) &&
		s.JustCompleted == o.JustCompleted &&
		s.IsHydrated == o.IsHydrated
}

// HasPreset reports whether minutes is one of the allowed durations.
func (s Snapshot) HasPreset(minutes int) bool {
	return slices.Contains(s.AllowedDurations, minutes)
}

// Running reports whether the countdown is actively counting down.
func (s State) Running() bool {
	return !s.IsPaused && s.RemainingSeconds > 0
}

// CanChangeDuration reports whether the UI may change the selected duration.
// Changing the duration while the countdown is running is not allowed.
func (s State) CanChangeDuration() bool {
	return !s.Running()
}

// Projection is the read-only view presentation code consumes.
type Projection struct {
	RemainingSeconds int
	IsLoading        bool
}

// Projection returns the presentation view of the state.
func (s State) Projection() Projection {
	return Projection{
		RemainingSeconds: s.RemainingSeconds,
		IsLoading:        !s.IsHydrated,
	}
}

// Minutes returns the whole minutes component of the remaining time.
func (p Projection) Minutes() int {
	return p.RemainingSeconds / 60
}

// Seconds returns the seconds component of the remaining time.
func (p Projection) Seconds() int {
	return p.RemainingSeconds % 60
}
