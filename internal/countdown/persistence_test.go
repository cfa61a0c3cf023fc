package countdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePersister_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", StorageName+".json")

	p := NewFilePersister(path)
	want := Snapshot{SelectedMinutes: 25, RemainingSeconds: 1234, IsPaused: false}
	require.NoError(t, p.Save(want))

	got, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"selected_minutes": 25`)
	assert.Contains(t, string(content), `"schema_version": 1`)
	assert.Contains(t, string(content), `"allowed_durations": null`)
	assert.NotContains(t, string(content), "just_completed")
	assert.NotContains(t, string(content), "hydrated")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestFilePersister_MissingFile(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "missing.json"))

	got, err := p.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, DefaultSnapshot(), got)
}

func TestFilePersister_CorruptedReportsErrCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{ nope`},
		{"negative remaining", `{"selected_minutes": 5, "remaining_seconds": -3, "is_paused": false}`},
		{"negative minutes", `{"selected_minutes": -1, "remaining_seconds": 3}`},
		{"future schema", `{"selected_minutes": 5, "remaining_seconds": 300, "schema_version": 99}`},
		{"wrong types", `{"selected_minutes": "five"}`},
		{"empty file", ``},
		{"non-positive preset", `{"selected_minutes": 5, "remaining_seconds": 300, "allowed_durations": [0, 5]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			got, err := NewFilePersister(path).Load(context.Background())
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.Equal(t, DefaultSnapshot(), got)
		})
	}
}

func TestFilePersister_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFilePersister(filepath.Join(t.TempDir(), "state.json")).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryPersister(t *testing.T) {
	p := NewMemoryPersister(nil)

	_, err := p.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok := p.Saved()
	assert.False(t, ok)

	require.NoError(t, p.Save(Snapshot{SelectedMinutes: 1, RemainingSeconds: 60, IsPaused: true}))
	got, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, got.RemainingSeconds)
	assert.Equal(t, 1, p.Saves())
}

func TestFilePersister_PresetsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	p := NewFilePersister(path)

	require.NoError(t, p.Save(Snapshot{IsPaused: true, AllowedDurations: []int{}}))
	got, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got.AllowedDurations, "an emptied preset list must not read back as missing")
	assert.Empty(t, got.AllowedDurations)

	require.NoError(t, p.Save(Snapshot{IsPaused: true, AllowedDurations: []int{10, 20}}))
	got, err = p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, got.AllowedDurations)
}
