// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultMinutes       = 25
	DefaultTickInterval  = Duration(time.Second)
	DefaultVolume        = 80
	DefaultCompletionCue = "builtin:chime"
	DefaultChimeDuration = Duration(6500 * time.Millisecond)
	DefaultNotifyTimeout = Duration(10 * time.Second)
	StateFileName        = "duration-storage.json"
	HistoryFileName      = "sessions.jsonl"
	LogFileName          = "focusdesk.log"
)

// DefaultPresets seed the preset durations until they are edited from the
// TUI or the presets command.
var DefaultPresets = []int{15, 25, 30, 45, 60, 90, 120}

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "1m", "1h30m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the focusdesk configuration.
type Config struct {
	Timer   TimerConfig   `toml:"timer"`
	Audio   AudioConfig   `toml:"audio"`
	Notify  NotifyConfig  `toml:"notify"`
	History HistoryConfig `toml:"history"`
}

// TimerConfig holds countdown settings.
type TimerConfig struct {
	DefaultMinutes int      `toml:"default_minutes"` // Used when no state has been persisted yet
	Presets        []int    `toml:"presets"`         // Used when no presets have been persisted yet
	TickInterval   Duration `toml:"tick_interval"`
}

// AudioConfig holds cue and playback settings.
type AudioConfig struct {
	Enabled       bool              `toml:"enabled"`
	Volume        int               `toml:"volume"`  // 0-100
	CueDir        string            `toml:"cue_dir"` // Where <name>.mp3 cues live
	CompletionCue string            `toml:"completion_cue"`
	ChimeDuration Duration          `toml:"chime_duration"`
	Watch         bool              `toml:"watch"` // Reload local cue files when they change
	Cues          map[string]string `toml:"cues"`  // Ambient cue name -> source (empty = <cue_dir>/<name>.mp3)
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	Enabled bool     `toml:"enabled"`
	Timeout Duration `toml:"timeout"`
}

// HistoryConfig holds completed session log settings.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Timer: TimerConfig{
			DefaultMinutes: DefaultMinutes,
			Presets:        append([]int(nil), DefaultPresets...),
			TickInterval:   DefaultTickInterval,
		},
		Audio: AudioConfig{
			Enabled:       true,
			Volume:        DefaultVolume,
			CueDir:        filepath.Join(DataPath(), "audio"),
			CompletionCue: DefaultCompletionCue,
			ChimeDuration: DefaultChimeDuration,
			Watch:         true,
			Cues:          make(map[string]string),
		},
		Notify: NotifyConfig{
			Enabled: true,
			Timeout: DefaultNotifyTimeout,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "focusdesk", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "focusdesk")
}

// StatePath returns the path to the persisted countdown state.
func StatePath() string {
	return filepath.Join(DataPath(), StateFileName)
}

// HistoryPath returns the path to the completed session log.
func HistoryPath() string {
	return filepath.Join(DataPath(), HistoryFileName)
}

// LogPath returns the path the TUI logs to.
func LogPath() string {
	return filepath.Join(DataPath(), LogFileName)
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	return cfg, nil
}

// normalize clamps values a user can get wrong into their valid ranges.
func (c *Config) normalize() {
	if c.Timer.DefaultMinutes < 0 {
		c.Timer.DefaultMinutes = 0
	}
	if c.Timer.TickInterval <= 0 {
		c.Timer.TickInterval = DefaultTickInterval
	}
	c.Audio.Volume = max(0, min(c.Audio.Volume, 100))
	if c.Audio.ChimeDuration <= 0 {
		c.Audio.ChimeDuration = DefaultChimeDuration
	}
	if c.Audio.Cues == nil {
		c.Audio.Cues = make(map[string]string)
	}
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// CueSource returns the source for an ambient cue. An explicit entry in
// [audio.cues] wins, otherwise the <cue_dir>/<name>.mp3 convention applies.
func (c *Config) CueSource(name string) string {
	if src, ok := c.Audio.Cues[name]; ok && src != "" {
		return expandPath(src)
	}
	return filepath.Join(expandPath(c.Audio.CueDir), name+".mp3")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
