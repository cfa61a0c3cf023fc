package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/focusdesk/internal/history"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

// WaybarFormatter writes single-line JSON for a Waybar custom module:
//
//	"custom/focusdesk": {
//	  "exec": "focusdesk status --format waybar",
//	  "interval": 1,
//	  "return-type": "json",
//	  "on-click": "focusdesk toggle"
//	}
type WaybarFormatter struct {
	opts FormatterOptions
}

// NewWaybarFormatter creates a new Waybar formatter.
func NewWaybarFormatter(opts FormatterOptions) *WaybarFormatter {
	return &WaybarFormatter{opts: opts}
}

// FormatStatus writes the countdown as a Waybar module update.
func (f *WaybarFormatter) FormatStatus(w io.Writer, s Status) error {
	return writeWaybar(w, WaybarStatus{
		Text:       s.Display,
		Alt:        s.Condition,
		Tooltip:    statusTooltip(s),
		Class:      s.Condition,
		Percentage: s.Progress,
	})
}

func statusTooltip(s Status) string {
	switch s.Condition {
	case ConditionRunning:
		return fmt.Sprintf("%d minute session, %s left", s.SelectedMinutes, s.Display)
	case ConditionPaused:
		return fmt.Sprintf("%d minute session, paused at %s", s.SelectedMinutes, s.Display)
	case ConditionDone:
		return fmt.Sprintf("%d minute session finished", s.SelectedMinutes)
	default:
		return "No duration selected"
	}
}

// FormatSessions writes the session count with a per-session tooltip.
func (f *WaybarFormatter) FormatSessions(w io.Writer, sessions []history.Session) error {
	if len(sessions) == 0 {
		return writeWaybar(w, WaybarStatus{Text: "0", Alt: "empty", Class: "empty", Tooltip: "No completed sessions"})
	}

	sum := history.Summarize(sessions)
	lines := []string{fmt.Sprintf("%d minutes focused", sum.TotalMinutes)}
	for _, s := range sessions {
		lines = append(lines, fmt.Sprintf("%d min, %s", s.Minutes, s.RelativeTime()))
	}

	return writeWaybar(w, WaybarStatus{
		Text:    fmt.Sprintf("%d", sum.Sessions),
		Alt:     "sessions",
		Class:   "sessions",
		Tooltip: strings.Join(lines, "\n"),
	})
}

func writeWaybar(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}
