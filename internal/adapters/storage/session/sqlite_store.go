package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tuition/internal/adapters/storage"
	domain "tuition/internal/domain/session"
	"tuition/internal/domain/settings"
)

// Fixed width so expires_at compares correctly as text.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     storage.SQLDB
	sealer *Sealer
}

// NewSQLiteStore creates a session store that seals tokens with sealer.
func NewSQLiteStore(db storage.SQLDB, sealer *Sealer) *SQLiteStore {
	return &SQLiteStore{db: db, sealer: sealer}
}

// Save inserts or replaces a session.
func (s *SQLiteStore) Save(ctx context.Context, sess domain.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	sealed, err := s.sealer.Seal(sess.Token)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session (id, email, name, sealed_token, class, mode, admin, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email=excluded.email, name=excluded.name, sealed_token=excluded.sealed_token,
		   class=excluded.class, mode=excluded.mode, admin=excluded.admin, expires_at=excluded.expires_at`,
		sess.ID, sess.Email, sess.Name, sealed, sess.Class, string(sess.Mode), sess.Admin,
		sess.CreatedAt.UTC().Format(dateLayout), sess.ExpiresAt.UTC().Format(dateLayout))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

const columns = `id, email, name, sealed_token, class, mode, admin, created_at, expires_at`

// Get loads a live session. Expired rows are deleted on sight.
func (s *SQLiteStore) Get(ctx context.Context, id string, now time.Time) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM session WHERE id = ?`, id)
	sess, err := s.scan(row)
	if err != nil {
		return domain.Session{}, err
	}
	if sess.Expired(now) {
		_ = s.Delete(ctx, id)
		return domain.Session{}, domain.ErrExpired
	}
	return sess, nil
}

// LatestByEmail returns the most recently created live session of a user.
func (s *SQLiteStore) LatestByEmail(ctx context.Context, email string, now time.Time) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM session WHERE email = ? AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`, email, now.UTC().Format(dateLayout))
	return s.scan(row)
}

func (s *SQLiteStore) scan(row *sql.Row) (domain.Session, error) {
	var (
		sess                 domain.Session
		sealed, mode         string
		createdAt, expiresAt string
	)
	err := row.Scan(&sess.ID, &sess.Email, &sess.Name, &sealed, &sess.Class, &mode, &sess.Admin, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	sess.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	sess.ExpiresAt, _ = time.Parse(dateLayout, expiresAt)
	if sess.Token, err = s.sealer.Open(sealed); err != nil {
		return domain.Session{}, err
	}
	if sess.Mode, err = settings.ParseMode(mode); err != nil {
		sess.Mode = settings.ModeDark
	}
	return sess, nil
}

// Delete removes a session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE id = ?`, id)
	return err
}

// DeleteExpired purges expired sessions.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE expires_at <= ?`, now.UTC().Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByEmail removes every session of a user.
func (s *SQLiteStore) DeleteByEmail(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE email = ?`, email)
	return err
}
