package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	domainAudit "tuition/internal/domain/audit"
	"tuition/internal/domain/report"
	domainSession "tuition/internal/domain/session"
	"tuition/internal/domain/settings"
)

var (
	ErrForbidden   = errors.New("only administrators can change accounts")
	ErrSelfDisable = errors.New("you cannot disable your own account")
)

// SettingsWriter is the subset of the backend session used by the settings page.
type SettingsWriter interface {
	UpdateUser(ctx context.Context, p settings.Profile, mode settings.Mode) error
	UpdateDay(ctx context.Context, tuitionID, dayID int) error
	SetUserStatus(ctx context.Context, email string, status settings.UserStatus) error
	SetMode(ctx context.Context, email string, mode settings.Mode) error
}

// SettingsSessionStore persists sessions and signs users out.
type SettingsSessionStore interface {
	Save(ctx context.Context, s domainSession.Session) error
	DeleteByEmail(ctx context.Context, email string) error
}

// SettingsDeps holds dependencies for the settings orchestrators.
type SettingsDeps struct {
	Backend      SettingsWriter
	SessionStore SettingsSessionStore
	AuditStore   AuditRecorder
	Now          func() time.Time
}

// ExecuteUpdateProfile saves the signed-in user's name and message templates.
// The email is the account key and is taken from the session.
// PRE: sess is live
// POST: Backend profile updated; the session carries the new name
func ExecuteUpdateProfile(ctx context.Context, sess domainSession.Session, p settings.Profile, ip string, deps SettingsDeps) (domainSession.Session, error) {
	p.Email = sess.Email
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return domainSession.Session{}, err
	}
	if err := deps.Backend.UpdateUser(ctx, p, sess.Mode); err != nil {
		return domainSession.Session{}, err
	}
	if p.Name != sess.Name {
		sess.Name = p.Name
		if err := deps.SessionStore.Save(ctx, sess); err != nil {
			return domainSession.Session{}, err
		}
	}
	slog.Info("profile_updated", "email", sess.Email, "grade_templates", len(p.GradeTemplates))
	recordAudit(ctx, deps.AuditStore, Actor{Email: sess.Email, IP: ip},
		domainAudit.NewEvent(sess.Email, domainAudit.CategorySettings, domainAudit.ActionUpdate, nowOr(deps.Now)).
			WithResource("profile", sess.Email))
	return sess, nil
}

// ExecuteUpdateDay changes the weekday a tuition meets on.
// PRE: tuitionID is positive; dayID in [1, 7]
// POST: Backend tuition day updated
func ExecuteUpdateDay(ctx context.Context, actor Actor, tuitionID, dayID int, deps SettingsDeps) error {
	if tuitionID <= 0 {
		return report.ErrEmptyTuitionID
	}
	if err := settings.ValidateDay(dayID); err != nil {
		return err
	}
	if err := deps.Backend.UpdateDay(ctx, tuitionID, dayID); err != nil {
		return err
	}
	slog.Info("tuition_day_updated", "tuition_id", tuitionID, "day", dayID)
	recordAudit(ctx, deps.AuditStore, actor,
		domainAudit.NewEvent(actor.Email, domainAudit.CategorySettings, domainAudit.ActionUpdate, nowOr(deps.Now)).
			WithResource("tuition", strconv.Itoa(tuitionID)).
			WithDescription("day "+strconv.Itoa(dayID)))
	return nil
}

// ExecuteSetUserStatus enables or disables another dashboard account.
// Disabled users are signed out of every session at once.
// PRE: admin is an administrator session
// POST: Backend status updated
func ExecuteSetUserStatus(ctx context.Context, admin domainSession.Session, email string, status settings.UserStatus, ip string, deps SettingsDeps) error {
	if !admin.Admin {
		return ErrForbidden
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return settings.ErrEmptyEmail
	}
	if status == settings.UserDisabled && strings.EqualFold(email, admin.Email) {
		return ErrSelfDisable
	}
	if err := deps.Backend.SetUserStatus(ctx, email, status); err != nil {
		return err
	}
	if status == settings.UserDisabled {
		if err := deps.SessionStore.DeleteByEmail(ctx, email); err != nil {
			slog.Error("session_revoke_failed", "email", email, "error", err)
		}
	}
	slog.Info("user_status_updated", "email", email, "status", status.String(), "admin", admin.Email)
	action := domainAudit.ActionEnable
	if status == settings.UserDisabled {
		action = domainAudit.ActionRemove
	}
	recordAudit(ctx, deps.AuditStore, Actor{Email: admin.Email, IP: ip},
		domainAudit.NewEvent(admin.Email, domainAudit.CategoryAccount, action, nowOr(deps.Now)).
			WithResource("user", email).
			WithSeverity(domainAudit.SeverityWarning))
	return nil
}

// ExecuteToggleMode flips the light/dark theme and stores it on the backend
// so it follows the user to other devices.
// PRE: sess is live
// POST: Returns the session with the new mode persisted
func ExecuteToggleMode(ctx context.Context, sess domainSession.Session, deps SettingsDeps) (domainSession.Session, error) {
	mode := sess.Mode.Toggle()
	if err := deps.Backend.SetMode(ctx, sess.Email, mode); err != nil {
		return domainSession.Session{}, err
	}
	sess.Mode = mode
	if err := deps.SessionStore.Save(ctx, sess); err != nil {
		return domainSession.Session{}, err
	}
	slog.Debug("mode_toggled", "email", sess.Email, "mode", mode)
	return sess, nil
}
