// Package output provides formatters for countdown status and session history.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/focusdesk/internal/countdown"
	"github.com/jmylchreest/focusdesk/internal/history"
)

// Formatter formats countdown status and completed sessions for output.
type Formatter interface {
	// FormatStatus writes the countdown status to the writer.
	FormatStatus(w io.Writer, s Status) error
	// FormatSessions writes completed sessions to the writer.
	FormatSessions(w io.Writer, sessions []history.Session) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatJSON   FormatType = "json"
	FormatYAML   FormatType = "yaml"
	FormatPlain  FormatType = "plain"
	FormatWaybar FormatType = "waybar"
)

// Formats lists the supported format names.
var Formats = []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatWaybar}

// ParseFormat validates a format name.
func ParseFormat(s string) (FormatType, error) {
	f := FormatType(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatPlain, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want plain, json, yaml or waybar)", s)
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatWaybar:
		return NewWaybarFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template string // Custom text/template for plain status output
	ShowTime bool   // Show relative completion times in plain session output
}

// DefaultFormatterOptions returns the defaults used by the CLI.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{ShowTime: true}
}

// Countdown conditions reported in Status.Condition.
const (
	ConditionIdle    = "idle"
	ConditionPaused  = "paused"
	ConditionRunning = "running"
	ConditionDone    = "done"
)

// Status is the serializable view of a countdown.
type Status struct {
	Condition        string `json:"condition" yaml:"condition"`
	Display          string `json:"display" yaml:"display"`
	SelectedMinutes  int    `json:"selected_minutes" yaml:"selected_minutes"`
	RemainingSeconds int    `json:"remaining_seconds" yaml:"remaining_seconds"`
	IsPaused         bool   `json:"is_paused" yaml:"is_paused"`
	Progress         int    `json:"progress" yaml:"progress"` // Elapsed share of the selected duration, 0-100
}

// NewStatus builds a Status from a countdown state.
func NewStatus(st countdown.State) Status {
	p := st.Projection()
	return Status{
		Condition:        conditionOf(st),
		Display:          Clock(p),
		SelectedMinutes:  st.SelectedMinutes,
		RemainingSeconds: st.RemainingSeconds,
		IsPaused:         st.IsPaused,
		Progress:         Progress(st),
	}
}

func conditionOf(st countdown.State) string {
	switch {
	case st.Running():
		return ConditionRunning
	case st.RemainingSeconds == 0 && st.SelectedMinutes > 0:
		return ConditionDone
	case st.RemainingSeconds == 0:
		return ConditionIdle
	default:
		return ConditionPaused
	}
}

// Clock renders the remaining time as mm:ss.
func Clock(p countdown.Projection) string {
	return fmt.Sprintf("%02d:%02d", p.Minutes(), p.Seconds())
}

// Progress returns the elapsed share of the selected duration as 0-100.
func Progress(st countdown.State) int {
	total := st.SelectedMinutes * 60
	if total <= 0 {
		return 0
	}
	elapsed := total - st.RemainingSeconds
	if elapsed <= 0 {
		return 0
	}
	return min(elapsed*100/total, 100)
}
