package history

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// FilterOptions selects sessions for listing.
type FilterOptions struct {
	// Since keeps sessions completed within this duration of now (0 = all time).
	Since time.Duration
	// Limit caps the result after sorting (0 = unlimited).
	Limit int
}

// Filter returns the matching sessions, newest first.
func Filter(sessions []Session, opts FilterOptions, now time.Time) []Session {
	out := make([]Session, 0, len(sessions))

	var cutoff time.Time
	if opts.Since > 0 {
		cutoff = now.Add(-opts.Since)
	}
	for _, s := range sessions {
		if !cutoff.IsZero() && s.Time().Before(cutoff) {
			continue
		}
		out = append(out, s)
	}

	SortNewestFirst(out)

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// SortNewestFirst sorts sessions by completion time, newest first, breaking
// ties by ID.
func SortNewestFirst(sessions []Session) {
	slices.SortStableFunc(sessions, func(a, b Session) int {
		if c := cmp.Compare(b.CompletedAt, a.CompletedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

// Summary aggregates a set of sessions.
type Summary struct {
	Sessions     int       `json:"sessions" yaml:"sessions"`
	TotalMinutes int       `json:"total_minutes" yaml:"total_minutes"`
	Last         time.Time `json:"last,omitzero" yaml:"last,omitempty"`
}

// Summarize totals sessions.
func Summarize(sessions []Session) Summary {
	var sum Summary
	for _, s := range sessions {
		sum.Sessions++
		sum.TotalMinutes += s.Minutes
		if t := s.Time(); t.After(sum.Last) {
			sum.Last = t
		}
	}
	return sum
}

// ParseDuration parses durations like "48h", "7d" or "2w". "0" and "" mean no limit.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if s == "0" || s == "" {
		return 0, nil
	}

	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}
