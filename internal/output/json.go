package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/focusdesk/internal/history"
)

// JSONFormatter formats output as indented JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// FormatStatus writes the status as a JSON object.
func (f *JSONFormatter) FormatStatus(w io.Writer, s Status) error {
	return encodeJSON(w, s)
}

// FormatSessions writes the sessions as a JSON array.
func (f *JSONFormatter) FormatSessions(w io.Writer, sessions []history.Session) error {
	if sessions == nil {
		sessions = []history.Session{}
	}
	return encodeJSON(w, sessions)
}

func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
