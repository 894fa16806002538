package session

import (
	"context"
	"time"

	domain "tuition/internal/domain/session"
)

// Store defines the interface for dashboard session persistence.
type Store interface {
	// Save inserts or replaces a session.
	// PRE: s passes Validate
	// POST: Session is persisted with its token sealed
	Save(ctx context.Context, s domain.Session) error

	// Get loads a live session.
	// PRE: id is non-empty
	// POST: Returns ErrNotFound for unknown ids and ErrExpired past ExpiresAt
	Get(ctx context.Context, id string, now time.Time) (domain.Session, error)

	// LatestByEmail returns the newest live session of a user.
	// POST: Returns ErrNotFound when the user has no live session
	LatestByEmail(ctx context.Context, email string, now time.Time) (domain.Session, error)

	// Delete removes a session. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired purges sessions past their expiry and returns how many went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// DeleteByEmail signs a user out everywhere, e.g. after an account is disabled.
	DeleteByEmail(ctx context.Context, email string) error
}

var _ Store = (*SQLiteStore)(nil)
