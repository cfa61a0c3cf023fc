package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/focusdesk/internal/history"
)

// PlainFormatter formats output as human-readable text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter. An invalid custom
// template is ignored; use ValidateTemplate to report it.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := parseTemplate(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// ValidateTemplate reports whether a status template parses.
func ValidateTemplate(text string) error {
	if _, err := parseTemplate(text); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

func parseTemplate(text string) (*template.Template, error) {
	return template.New("status").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}).Parse(text)
}

// FormatStatus writes the status as a single line, or through the custom template.
func (f *PlainFormatter) FormatStatus(w io.Writer, s Status) error {
	if f.template != nil {
		if err := f.template.Execute(w, s); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	_, err := fmt.Fprintf(w, "%s %s (%d min)\n", s.Display, s.Condition, s.SelectedMinutes)
	return err
}

// FormatSessions writes one line per session followed by a total.
func (f *PlainFormatter) FormatSessions(w io.Writer, sessions []history.Session) error {
	if len(sessions) == 0 {
		_, err := io.WriteString(w, "No completed sessions\n")
		return err
	}

	var sb strings.Builder
	for _, s := range sessions {
		sb.WriteString(fmt.Sprintf("%3d min  %s", s.Minutes, s.Time().Format(time.DateTime)))
		if f.opts.ShowTime {
			sb.WriteString(fmt.Sprintf("  (%s)", s.RelativeTime()))
		}
		sb.WriteString("\n")
	}

	sum := history.Summarize(sessions)
	sb.WriteString(fmt.Sprintf("%s, %s focused\n",
		plural(sum.Sessions, "session"),
		plural(sum.TotalMinutes, "minute")))

	_, err := io.WriteString(w, sb.String())
	return err
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return humanize.Comma(int64(n)) + " " + unit + "s"
}
