package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/focusdesk/internal/history"
)

// YAMLFormatter formats output as YAML documents.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// FormatStatus writes the status as a YAML mapping.
func (f *YAMLFormatter) FormatStatus(w io.Writer, s Status) error {
	return encodeYAML(w, s)
}

// FormatSessions writes the sessions as a YAML sequence.
func (f *YAMLFormatter) FormatSessions(w io.Writer, sessions []history.Session) error {
	if sessions == nil {
		sessions = []history.Session{}
	}
	return encodeYAML(w, sessions)
}

func encodeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
