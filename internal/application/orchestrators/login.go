package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tuition/internal/adapters/backend"
	domainAudit "tuition/internal/domain/audit"
	domainSession "tuition/internal/domain/session"
	"tuition/internal/domain/settings"
)

// LoginBackend authenticates against the tuition backend.
type LoginBackend interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
}

// ModeReader reads the theme a user saved on the backend.
type ModeReader interface {
	GetMode(ctx context.Context, email string) (settings.Mode, error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Backend      LoginBackend
	Modes        func(token string) ModeReader // optional
	SessionStore SessionSaver
	AuditStore   AuditRecorder
	AdminEmails  []string
	TTL          time.Duration
	Now          func() time.Time
}

var ErrInvalidCredentials = errors.New("invalid email or password")

// ExecuteLogin exchanges credentials for a backend token and starts a dashboard session.
// PRE: Valid email and password provided
// POST: Returns a persisted session with no class selected
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (domainSession.Session, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return domainSession.Session{}, ErrInvalidCredentials
	}

	res, err := deps.Backend.Login(ctx, email, input.Password)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "error", err)
		return domainSession.Session{}, err
	}
	if res.Email != "" {
		email = res.Email
	}

	now := nowOr(deps.Now)
	admin := settings.IsAdmin(email, deps.AdminEmails)
	sess, err := domainSession.New(email, res.Name, res.Token, admin, now, deps.TTL)
	if err != nil {
		return domainSession.Session{}, err
	}
	if deps.Modes != nil {
		if mode, err := deps.Modes(res.Token).GetMode(ctx, email); err == nil {
			sess.Mode = mode
		} else {
			slog.Warn("login_mode_unavailable", "email", email, "error", err)
		}
	}
	if err := deps.SessionStore.Save(ctx, sess); err != nil {
		return domainSession.Session{}, err
	}

	slog.Info("auth_event", "event", "login_success", "email", email, "admin", admin)
	recordAudit(ctx, deps.AuditStore, Actor{Email: email, IP: input.IP},
		domainAudit.NewEvent(email, domainAudit.CategoryAccount, domainAudit.ActionLogin, now))
	return sess, nil
}

// SessionDeleter removes dashboard sessions.
type SessionDeleter interface {
	Delete(ctx context.Context, id string) error
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	SessionStore SessionDeleter
	AuditStore   AuditRecorder
	Now          func() time.Time
}

// ExecuteLogout ends a dashboard session.
// PRE: sessionID identifies the caller's session
// POST: The session no longer exists
func ExecuteLogout(ctx context.Context, sessionID string, actor Actor, deps LogoutDeps) error {
	if err := deps.SessionStore.Delete(ctx, sessionID); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "logout", "email", actor.Email)
	recordAudit(ctx, deps.AuditStore, actor,
		domainAudit.NewEvent(actor.Email, domainAudit.CategoryAccount, domainAudit.ActionLogout, nowOr(deps.Now)))
	return nil
}

// SelectClassDeps holds dependencies for SelectClass.
type SelectClassDeps struct {
	SessionStore SessionSaver
}

// ExecuteSelectClass stores the class chosen on the class picker.
// PRE: sess is a live session; code is E, S or M
// POST: Returns the updated, persisted session
func ExecuteSelectClass(ctx context.Context, sess domainSession.Session, code string, deps SelectClassDeps) (domainSession.Session, error) {
	if err := sess.SelectClass(code); err != nil {
		return domainSession.Session{}, err
	}
	if err := deps.SessionStore.Save(ctx, sess); err != nil {
		return domainSession.Session{}, err
	}
	slog.Info("class_selected", "email", sess.Email, "class", sess.Class)
	return sess, nil
}
