package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned when a turn is requested before an API key
// and user name have been stored.
var ErrNotConfigured = errors.New("not configured (run: proxen setup)")

// Store persists a session snapshot.
// Implementations overwrite the previous snapshot on every Save (last write wins).
type Store interface {
	// Load returns the stored snapshot, or an empty one if nothing was saved yet.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap Snapshot) error

	// Reset removes everything that was stored.
	Reset(ctx context.Context) error
}

// Configured reports whether the profile is complete enough to run a turn.
func (p Profile) Configured() bool {
	return p.APIKey != "" && p.UserName != ""
}

// RollOver returns s with CompletedToday reset when the last interaction
// happened on an earlier local day than now.
func (s State) RollOver(now time.Time) State {
	if s.LastInteractionAt.IsZero() || s.CompletedToday == 0 {
		return s
	}
	ly, lm, ld := s.LastInteractionAt.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	if ly == ny && lm == nm && ld == nd {
		return s
	}
	out := s.Clone()
	out.CompletedToday = 0
	return out
}
