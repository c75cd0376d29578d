// Package history records completed countdowns in a JSONL file.
package history

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Outcomes recorded for a session.
const (
	OutcomeCompleted = "completed"
)

// Session is one countdown run to completion.
type Session struct {
	ID          string `json:"id" yaml:"id"`
	Duration    int64  `json:"duration" yaml:"duration"` // Seconds counted down
	StartedAt   int64  `json:"started_at" yaml:"started_at"`
	CompletedAt int64  `json:"completed_at" yaml:"completed_at"`
	Noise       bool   `json:"noise" yaml:"noise"` // Brown noise played
	Outcome     string `json:"outcome" yaml:"outcome"`
}

// NewSession creates a completed session with a fresh ULID.
func NewSession(duration time.Duration, startedAt, completedAt time.Time, noise bool) (*Session, error) {
	id, err := ulid.New(ulid.Timestamp(completedAt), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return &Session{
		ID:          id.String(),
		Duration:    int64(duration / time.Second),
		StartedAt:   startedAt.Unix(),
		CompletedAt: completedAt.Unix(),
		Noise:       noise,
		Outcome:     OutcomeCompleted,
	}, nil
}

// Length returns the counted-down duration.
func (s Session) Length() time.Duration {
	return time.Duration(s.Duration) * time.Second
}

// Completed returns the completion time.
func (s Session) Completed() time.Time {
	return time.Unix(s.CompletedAt, 0)
}
