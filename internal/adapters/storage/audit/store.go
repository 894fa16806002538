package audit

import (
	"context"
	"time"

	domain "tuition/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an event.
	// PRE: event passes Validate
	Save(ctx context.Context, event domain.Event) error

	// List returns events matching filter, newest first.
	// PRE: limit > 0
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)

	// Count returns how many events match filter; Offset is ignored.
	Count(ctx context.Context, filter Filter) (int, error)

	// PurgeBefore deletes events older than cutoff and returns how many went.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Category   domain.Category
	Action     domain.Action
	ActorEmail string
	ResourceID string
	Since      time.Time
	Offset     int // matches to skip, for paging
}

var _ Store = (*SQLiteStore)(nil)
