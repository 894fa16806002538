package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status values of an entry.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// Action types replayed by the retry worker.
const (
	ActionWeekReport  = "week_report"
	ActionPaidStatus  = "paid_status"
	ActionReportEmail = "report_email"
)

// DefaultMaxAttempts applies when an entry is created without a limit.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType   = errors.New("action type is required")
	ErrUnknownActionType = errors.New("unknown action type")
	ErrEmptyPayload      = errors.New("payload is required")
	ErrEmptyCreatedAt    = errors.New("created_at must be set")
)

// Entry is a backend write or email that failed and waits to be replayed.
type Entry struct {
	ID              string
	ActionType      string
	Payload         string // JSON encoded WeekReport, PaidStatus or ReportEmail
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ActorEmail      string // dashboard user who triggered the write
	ErrorMessage    string
}

// NewEntry encodes payload and returns a pending entry.
// PRE: payload is JSON serialisable
// POST: Entry passes Validate
func NewEntry(id, actionType, actorEmail string, payload any, now time.Time) (Entry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s payload: %w", actionType, err)
	}
	e := Entry{
		ID:          id,
		ActionType:  actionType,
		Payload:     string(raw),
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
		ActorEmail:  actorEmail,
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise; MaxAttempts defaults when unset
func (e *Entry) Validate() error {
	switch e.ActionType {
	case "":
		return ErrEmptyActionType
	case ActionWeekReport, ActionPaidStatus, ActionReportEmail:
	default:
		return ErrUnknownActionType
	}
	if e.Payload == "" || e.Payload == "null" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrEmptyCreatedAt
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// Decode unmarshals the payload into v.
func (e *Entry) Decode(v any) error {
	if err := json.Unmarshal([]byte(e.Payload), v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.ActionType, err)
	}
	return nil
}

// CanRetry returns true if the entry can be retried.
// PRE: Status and Attempts fields are set
// POST: Returns true for pending/retrying/failed with attempts < max
func (e *Entry) CanRetry() bool {
	switch e.Status {
	case StatusPending, StatusRetrying, StatusFailed:
		return e.Attempts < e.MaxAttempts
	}
	return false
}

// IsTerminal reports whether the worker will never pick the entry up again.
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusDone || e.Status == StatusAbandoned ||
		(e.Status == StatusFailed && e.Attempts >= e.MaxAttempts)
}

// Due reports whether the backoff window since the last attempt has passed.
// Entries never attempted are always due.
func (e *Entry) Due(now time.Time, baseDelay, maxDelay time.Duration) bool {
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay)))
}

// MarkAttempt records a replay attempt.
// POST: Attempts incremented, LastAttemptedAt = now, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as replayed.
func (e *Entry) MarkSuccess() {
	e.Status = StatusDone
	e.ErrorMessage = ""
}

// MarkFailed records err; the entry becomes failed once attempts are used up.
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// MarkAbandoned stops further retries.
func (e *Entry) MarkAbandoned() {
	e.Status = StatusAbandoned
}

// MarkSuperseded abandons an entry whose value a newer write replaced.
func (e *Entry) MarkSuperseded() {
	e.Status = StatusAbandoned
	e.ErrorMessage = "superseded by a newer write"
}

// NextRetryDelay is 2^attempts * baseDelay, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay, maxDelay time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return maxDelay
	}
	delay := baseDelay * (1 << e.Attempts)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}
