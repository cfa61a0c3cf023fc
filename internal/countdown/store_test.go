package countdown

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunningStore(t *testing.T, seconds int) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister(&Snapshot{SelectedMinutes: 1, RemainingSeconds: seconds, IsPaused: false})
	s := NewStore(p)
	require.NoError(t, s.Hydrate(context.Background()))
	return s, p
}

func TestNewStore_ZeroValues(t *testing.T) {
	s := NewStore(nil)
	st := s.State()

	assert.Equal(t, 0, st.RemainingSeconds)
	assert.Equal(t, 0, st.SelectedMinutes)
	assert.True(t, st.IsPaused)
	assert.False(t, st.JustCompleted)
	assert.False(t, st.IsHydrated)
	assert.True(t, s.Projection().IsLoading)
}

func TestSetDuration(t *testing.T) {
	p := NewMemoryPersister(nil)
	s := NewStore(p)

	st := s.SetDuration(25)
	assert.Equal(t, 1500, st.RemainingSeconds)
	assert.Equal(t, 25, st.SelectedMinutes)
	assert.True(t, st.IsPaused)
	assert.False(t, st.JustCompleted)

	saved, ok := p.Saved()
	require.True(t, ok)
	assert.Equal(t, st.Snapshot, saved)
}

func TestSetDuration_ClampsNegative(t *testing.T) {
	s := NewStore(nil)
	st := s.SetDuration(-4)
	assert.Equal(t, 0, st.RemainingSeconds)
	assert.Equal(t, 0, st.SelectedMinutes)
}

func TestSetDuration_ClearsJustCompleted(t *testing.T) {
	s, _ := newRunningStore(t, 1)

	st := s.Decrement()
	require.True(t, st.JustCompleted)

	st = s.SetDuration(5)
	assert.False(t, st.JustCompleted)
	assert.Equal(t, 300, st.RemainingSeconds)
}

func TestDecrement_PausedIsNoop(t *testing.T) {
	p := NewMemoryPersister(nil)
	s := NewStore(p)
	s.SetDuration(1)
	saves := p.Saves()

	st := s.Decrement()
	assert.Equal(t, 60, st.RemainingSeconds)
	assert.Equal(t, saves, p.Saves(), "paused decrement must not persist")
}

func TestDecrement_CompletesOnce(t *testing.T) {
	s, _ := newRunningStore(t, 1)

	st := s.Decrement()
	assert.Equal(t, 0, st.RemainingSeconds)
	assert.True(t, st.JustCompleted)

	st = s.Decrement()
	assert.Equal(t, 0, st.RemainingSeconds)
	assert.False(t, st.JustCompleted)
}

func TestDecrement_NeverNegative(t *testing.T) {
	s, _ := newRunningStore(t, 3)

	for range 10 {
		st := s.Decrement()
		assert.GreaterOrEqual(t, st.RemainingSeconds, 0)
	}
	assert.Equal(t, 0, s.State().RemainingSeconds)
}

func TestDecrement_PersistsRemaining(t *testing.T) {
	s, p := newRunningStore(t, 10)

	s.Decrement()
	saved, ok := p.Saved()
	require.True(t, ok)
	assert.Equal(t, 9, saved.RemainingSeconds)
}

func TestTogglePause(t *testing.T) {
	s := NewStore(nil)
	s.SetDuration(1)

	assert.False(t, s.TogglePause().IsPaused)
	assert.True(t, s.TogglePause().IsPaused)
}

func TestReset_RestoresSelectedDuration(t *testing.T) {
	s, _ := newRunningStore(t, 60)
	s.SetDuration(2)
	s.TogglePause()
	for range 30 {
		s.Decrement()
	}
	require.Equal(t, 90, s.State().RemainingSeconds)

	st := s.Reset()
	assert.Equal(t, 120, st.RemainingSeconds)
	assert.Equal(t, 2, st.SelectedMinutes)
	assert.True(t, st.IsPaused)
	assert.False(t, st.JustCompleted)
}

func TestCanChangeDuration(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{"paused with time left", State{Snapshot: Snapshot{RemainingSeconds: 10, IsPaused: true}}, true},
		{"running", State{Snapshot: Snapshot{RemainingSeconds: 10, IsPaused: false}}, false},
		{"unpaused at zero", State{Snapshot: Snapshot{RemainingSeconds: 0, IsPaused: false}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.CanChangeDuration())
		})
	}
}

func TestProjection(t *testing.T) {
	p := State{Snapshot: Snapshot{RemainingSeconds: 125}, IsHydrated: true}.Projection()
	assert.Equal(t, 2, p.Minutes())
	assert.Equal(t, 5, p.Seconds())
	assert.False(t, p.IsLoading)
}

func TestHydrate_LoadsPersisted(t *testing.T) {
	p := NewMemoryPersister(&Snapshot{SelectedMinutes: 10, RemainingSeconds: 321, IsPaused: false})
	s := NewStore(p, WithDefaultMinutes(25))

	require.NoError(t, s.Hydrate(context.Background()))
	st := s.State()
	assert.True(t, st.IsHydrated)
	assert.Equal(t, 321, st.RemainingSeconds)
	assert.Equal(t, 10, st.SelectedMinutes)
	assert.False(t, st.IsPaused)
}

func TestHydrate_DefaultsWhenNothingPersisted(t *testing.T) {
	s := NewStore(NewMemoryPersister(nil), WithDefaultMinutes(25))

	require.NoError(t, s.Hydrate(context.Background()))
	st := s.State()
	assert.True(t, st.IsHydrated)
	assert.Equal(t, 1500, st.RemainingSeconds)
	assert.True(t, st.IsPaused)
}

func TestHydrate_LoadErrorFallsBackButStillHydrates(t *testing.T) {
	p := NewMemoryPersister(nil)
	p.LoadErr = errors.New("disk on fire")
	s := NewStore(p)

	err := s.Hydrate(context.Background())
	assert.Error(t, err)
	assert.True(t, s.State().IsHydrated)
	assert.Equal(t, 0, s.State().RemainingSeconds)
}

func TestHydrate_OnlyOnce(t *testing.T) {
	p := NewMemoryPersister(&Snapshot{SelectedMinutes: 1, RemainingSeconds: 60, IsPaused: true})
	s := NewStore(p)

	require.NoError(t, s.Hydrate(context.Background()))
	s.SetDuration(3)
	require.NoError(t, s.Hydrate(context.Background()))

	assert.Equal(t, 180, s.State().RemainingSeconds)
}

func TestHydrate_CorruptedFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

	s := NewStore(NewFilePersister(path), WithDefaultMinutes(5))
	require.NoError(t, s.Hydrate(context.Background()))
	assert.Equal(t, DefaultSnapshot(), s.State().Snapshot)
}

func TestHydrate_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	first := NewStore(NewFilePersister(path))
	require.NoError(t, first.Hydrate(context.Background()))
	first.SetDuration(2)
	first.TogglePause()
	first.Decrement()

	second := NewStore(NewFilePersister(path))
	require.NoError(t, second.Hydrate(context.Background()))
	st := second.State()
	assert.Equal(t, 2, st.SelectedMinutes)
	assert.Equal(t, 119, st.RemainingSeconds)
	assert.False(t, st.IsPaused)
	assert.False(t, st.JustCompleted)
}

func TestSubscribe_ReceivesEvents(t *testing.T) {
	s, _ := newRunningStore(t, 1)
	ch := s.Subscribe()

	s.Decrement()

	select {
	case ev := <-ch:
		assert.Equal(t, ChangeTypeCompleted, ev.Type)
		assert.True(t, ev.State.JustCompleted)
	case <-time.After(time.Second):
		t.Fatal("expected change event")
	}

	s.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestSetHydrated_NotifiesOnlyOnChange(t *testing.T) {
	s := NewStore(nil)
	ch := s.Subscribe()

	s.SetHydrated(true)
	s.SetHydrated(true)

	assert.Len(t, ch, 1)
	ev := <-ch
	assert.Equal(t, ChangeTypeHydrated, ev.Type)
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "completed", ChangeTypeCompleted.String())
	assert.Equal(t, "unknown", ChangeType(42).String())
}

func TestHydrate_FillsMissingPresets(t *testing.T) {
	p := NewMemoryPersister(&Snapshot{SelectedMinutes: 10, RemainingSeconds: 600, IsPaused: true})
	s := NewStore(p, WithAllowedDurations([]int{50, 10, 10, -3}))

	require.NoError(t, s.Hydrate(context.Background()))
	assert.Equal(t, []int{10, 50}, s.State().AllowedDurations)
}

func TestHydrate_KeepsPersistedPresets(t *testing.T) {
	p := NewMemoryPersister(&Snapshot{SelectedMinutes: 10, RemainingSeconds: 600, IsPaused: true, AllowedDurations: []int{}})
	s := NewStore(p, WithAllowedDurations([]int{5}))

	require.NoError(t, s.Hydrate(context.Background()))
	assert.Empty(t, s.State().AllowedDurations)
}

func TestAddAllowedDuration(t *testing.T) {
	p := NewMemoryPersister(&Snapshot{IsPaused: true, AllowedDurations: []int{15, 45}})
	s := NewStore(p)
	require.NoError(t, s.Hydrate(context.Background()))
	ch := s.Subscribe()

	st := s.AddAllowedDuration(30)
	assert.Equal(t, []int{15, 30, 45}, st.AllowedDurations)
	ev := <-ch
	assert.Equal(t, ChangeTypePresets, ev.Type)

	saved, ok := p.Saved()
	require.True(t, ok)
	assert.Equal(t, []int{15, 30, 45}, saved.AllowedDurations)

	saves := p.Saves()
	s.AddAllowedDuration(30)
	s.AddAllowedDuration(0)
	s.AddAllowedDuration(-5)
	assert.Equal(t, []int{15, 30, 45}, s.State().AllowedDurations)
	assert.Equal(t, saves, p.Saves(), "ignored additions are not persisted")
}

func TestRemoveAllowedDuration(t *testing.T) {
	tests := []struct {
		name         string
		selected     int
		remove       int
		wantPresets  []int
		wantSelected int
	}{
		{"other preset", 25, 15, []int{25, 45}, 25},
		{"selected preset clears selection", 25, 25, []int{15, 45}, 0},
		{"absent preset", 25, 60, []int{15, 25, 45}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewMemoryPersister(&Snapshot{
				SelectedMinutes:  tt.selected,
				RemainingSeconds: 300,
				IsPaused:         true,
				AllowedDurations: []int{15, 25, 45},
			})
			s := NewStore(p)
			require.NoError(t, s.Hydrate(context.Background()))

			st := s.RemoveAllowedDuration(tt.remove)
			assert.Equal(t, tt.wantPresets, st.AllowedDurations)
			assert.Equal(t, tt.wantSelected, st.SelectedMinutes)
			assert.Equal(t, 300, st.RemainingSeconds, "remaining time is left alone")
		})
	}
}

func TestRemoveAllowedDuration_LastPresetPersistsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(NewFilePersister(path), WithAllowedDurations([]int{20}))
	require.NoError(t, s.Hydrate(context.Background()))

	s.RemoveAllowedDuration(20)

	restarted := NewStore(NewFilePersister(path), WithAllowedDurations([]int{20}))
	require.NoError(t, restarted.Hydrate(context.Background()))
	assert.Empty(t, restarted.State().AllowedDurations)
}

func TestAllowedDurationsNotAliased(t *testing.T) {
	s := NewStore(nil, WithAllowedDurations([]int{10, 20}))
	s.SetHydrated(true)

	before := s.State()
	s.AddAllowedDuration(15)
	assert.Equal(t, []int{10, 20}, before.AllowedDurations)
}
