package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 25, cfg.Timer.DefaultMinutes)
	assert.Equal(t, []int{15, 25, 30, 45, 60, 90, 120}, cfg.Timer.Presets)
	assert.Equal(t, time.Second, cfg.Timer.TickInterval.Duration())
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, 80, cfg.Audio.Volume)
	assert.Equal(t, "builtin:chime", cfg.Audio.CompletionCue)
	assert.Equal(t, 6500*time.Millisecond, cfg.Audio.ChimeDuration.Duration())
	assert.True(t, cfg.Notify.Enabled)
	assert.True(t, cfg.History.Enabled)
	assert.NotNil(t, cfg.Audio.Cues)
}

func TestDefaultPresetsNotShared(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timer.Presets[0] = 99
	assert.Equal(t, 15, DefaultPresets[0])
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Timer.DefaultMinutes, cfg.Timer.DefaultMinutes)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[timer]
default_minutes = 45
presets = [10, 20]
tick_interval = "500ms"

[audio]
enabled = false
volume = 40
cue_dir = "/srv/cues"
completion_cue = "/srv/cues/bell.wav"
chime_duration = "3000"
watch = false

[audio.cues]
rain = "/srv/cues/heavy-rain.ogg"

[notify]
enabled = false
timeout = "1m"

[history]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Timer.DefaultMinutes)
	assert.Equal(t, []int{10, 20}, cfg.Timer.Presets)
	assert.Equal(t, 500*time.Millisecond, cfg.Timer.TickInterval.Duration())
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, 40, cfg.Audio.Volume)
	assert.Equal(t, "/srv/cues/bell.wav", cfg.Audio.CompletionCue)
	assert.Equal(t, 3*time.Second, cfg.Audio.ChimeDuration.Duration())
	assert.False(t, cfg.Audio.Watch)
	assert.Equal(t, "/srv/cues/heavy-rain.ogg", cfg.Audio.Cues["rain"])
	assert.False(t, cfg.Notify.Enabled)
	assert.Equal(t, time.Minute, cfg.Notify.Timeout.Duration())
	assert.False(t, cfg.History.Enabled)
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[timer]
default_minutes = 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Timer.DefaultMinutes)
	assert.Equal(t, time.Second, cfg.Timer.TickInterval.Duration())
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, DefaultCompletionCue, cfg.Audio.CompletionCue)
}

func TestLoadConfig_ClampsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[timer]
default_minutes = -5
tick_interval = "0s"

[audio]
volume = 250
chime_duration = "0s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Timer.DefaultMinutes)
	assert.Equal(t, DefaultTickInterval, cfg.Timer.TickInterval)
	assert.Equal(t, 100, cfg.Audio.Volume)
	assert.Equal(t, DefaultChimeDuration, cfg.Audio.ChimeDuration)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte("[timer]\ntick_interval = \"soon\"\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Timer.DefaultMinutes = 50
	cfg.Audio.Cues["waves"] = "/tmp/waves.mp3"

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, loaded.Timer.DefaultMinutes)
	assert.Equal(t, "/tmp/waves.mp3", loaded.Audio.Cues["waves"])
	assert.Equal(t, cfg.Audio.ChimeDuration, loaded.Audio.ChimeDuration)
}

func TestConfig_CueSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.CueDir = "/srv/cues"
	cfg.Audio.Cues["rain"] = "/elsewhere/rain.ogg"

	tests := []struct {
		name     string
		expected string
	}{
		{"rain", "/elsewhere/rain.ogg"},
		{"forest", "/srv/cues/forest.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cfg.CueSource(tt.name))
		})
	}
}

func TestPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "focusdesk"), DataPath())
	assert.Equal(t, filepath.Join(dir, "focusdesk", "config.toml"), ConfigPath())
	assert.Equal(t, filepath.Join(dir, "focusdesk", "duration-storage.json"), StatePath())
	assert.Equal(t, filepath.Join(dir, "focusdesk", "sessions.jsonl"), HistoryPath())
}
