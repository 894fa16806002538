package audit

import (
	"context"
	"database/sql"
	"time"

	"tuition/internal/adapters/storage"
	domain "tuition/internal/domain/audit"
)

const (
	dateLayout = "2006-01-02T15:04:05.000000000Z07:00"
	columns    = `id, timestamp, category, action, severity, actor_email, resource_type, resource_id, description, ip_address`
)

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates an audit store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an event.
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(dateLayout), string(e.Category), string(e.Action), string(e.Severity),
		e.ActorEmail, e.ResourceType, e.ResourceID, e.Description, e.IPAddress)
	return err
}

// List returns events matching filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, f Filter, limit int) ([]domain.Event, error) {
	where, args := whereClause(f)
	query := `SELECT ` + columns + ` FROM audit_event` + where + ` ORDER BY timestamp DESC LIMIT ? OFFSET ?`
	args = append(args, limit, max(f.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Count returns how many events match filter.
func (s *SQLiteStore) Count(ctx context.Context, f Filter) (int, error) {
	where, args := whereClause(f)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM audit_event`+where, args...).Scan(&n)
	return n, err
}

func whereClause(f Filter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if f.Category != "" {
		where += " AND category = ?"
		args = append(args, string(f.Category))
	}
	if f.Action != "" {
		where += " AND action = ?"
		args = append(args, string(f.Action))
	}
	if f.ActorEmail != "" {
		where += " AND actor_email = ?"
		args = append(args, f.ActorEmail)
	}
	if f.ResourceID != "" {
		where += " AND resource_id = ?"
		args = append(args, f.ResourceID)
	}
	if !f.Since.IsZero() {
		where += " AND timestamp >= ?"
		args = append(args, f.Since.UTC().Format(dateLayout))
	}
	return where, args
}

// PurgeBefore deletes events older than cutoff.
func (s *SQLiteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_event WHERE timestamp < ?`, cutoff.UTC().Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var ts string
		err := rows.Scan(&e.ID, &ts, &e.Category, &e.Action, &e.Severity, &e.ActorEmail,
			&e.ResourceType, &e.ResourceID, &e.Description, &e.IPAddress)
		if err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(dateLayout, ts)
		events = append(events, e)
	}
	return events, rows.Err()
}
