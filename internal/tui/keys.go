package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Countdown
	Toggle   key.Binding
	Increase key.Binding
	Decrease key.Binding
	Preset   key.Binding
	Reset    key.Binding

	// Presets
	AddPreset    key.Binding
	RemovePreset key.Binding

	// Ambient cues
	NextCue key.Binding
	PlayCue key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Reset, k.Increase, k.Decrease},
		{k.Preset, k.AddPreset, k.RemovePreset},
		{k.PlayCue, k.NextCue},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space", "p"),
			key.WithHelp("space/p", "start/pause"),
		),
		Increase: key.NewBinding(
			key.WithKeys("+", "=", "up", "k"),
			key.WithHelp("+/↑", "add a minute"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("-", "down", "j"),
			key.WithHelp("-/↓", "remove a minute"),
		),
		Preset: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "preset"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		AddPreset: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "save duration as preset"),
		),
		RemovePreset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove selected preset"),
		),
		NextCue: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next ambient cue"),
		),
		PlayCue: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "play/stop ambient"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
