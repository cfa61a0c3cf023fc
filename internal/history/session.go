// Package history keeps an append-only log of finished focus sessions.
package history

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
)

// Validation errors.
var (
	ErrEmptyID          = errors.New("id cannot be empty")
	ErrInvalidMinutes   = errors.New("minutes must not be negative")
	ErrInvalidTimestamp = errors.New("completed_at must be greater than 0")
)

// Session is one countdown that ran to zero.
type Session struct {
	// ID is a ULID, so IDs sort by completion time.
	ID          string `json:"id" yaml:"id"`
	Minutes     int    `json:"minutes" yaml:"minutes"`
	CompletedAt int64  `json:"completed_at" yaml:"completed_at"`
}

// NewSession creates a session record for a countdown of minutes finished at completedAt.
func NewSession(minutes int, completedAt time.Time) (Session, error) {
	id, err := ulid.New(ulid.Timestamp(completedAt), rand.Reader)
	if err != nil {
		return Session{}, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return Session{
		ID:          id.String(),
		Minutes:     minutes,
		CompletedAt: completedAt.Unix(),
	}, nil
}

// Validate checks that the session has all required fields.
func (s Session) Validate() error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if s.Minutes < 0 {
		return ErrInvalidMinutes
	}
	if s.CompletedAt <= 0 {
		return ErrInvalidTimestamp
	}
	return nil
}

// Time returns the completion time.
func (s Session) Time() time.Time {
	return time.Unix(s.CompletedAt, 0)
}

// RelativeTime returns a human-friendly age such as "3 hours ago".
func (s Session) RelativeTime() string {
	return humanize.Time(s.Time())
}
