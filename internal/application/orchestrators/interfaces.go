package orchestrators

import (
	"context"
	"log/slog"
	"time"

	domainAudit "tuition/internal/domain/audit"
	domainOutbox "tuition/internal/domain/outbox"
	domainSession "tuition/internal/domain/session"
)

// Actor is the signed-in dashboard user performing an action.
type Actor struct {
	Email string
	IP    string
}

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Save(ctx context.Context, e domainAudit.Event) error
}

// OutboxSaver queues backend writes that could not be delivered.
type OutboxSaver interface {
	Save(ctx context.Context, e domainOutbox.Entry) error
}

// OutboxQueue queues checkbox writes and finds queued ones a newer write replaces.
type OutboxQueue interface {
	OutboxSaver
	ListPending(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
}

// SessionSaver persists dashboard sessions.
type SessionSaver interface {
	Save(ctx context.Context, s domainSession.Session) error
}

// recordAudit saves ev and logs, but never fails the caller's action.
func recordAudit(ctx context.Context, rec AuditRecorder, actor Actor, ev domainAudit.Event) {
	if rec == nil {
		return
	}
	ev = ev.WithIP(actor.IP)
	if err := rec.Save(ctx, ev); err != nil {
		slog.Error("audit_save_failed", "action", ev.Action, "actor", ev.ActorEmail, "error", err)
	}
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
