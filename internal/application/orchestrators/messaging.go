package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	domainAudit "tuition/internal/domain/audit"
	"tuition/internal/domain/message"
)

// MessageSender sends WhatsApp messages through the backend.
type MessageSender interface {
	SendTuitionMessage(ctx context.Context, m message.TuitionMessage) error
	Broadcast(ctx context.Context, b message.Broadcast) error
	PaymentReminders(ctx context.Context, email string) (string, error)
}

// MessagingDeps holds dependencies for the messaging orchestrators.
type MessagingDeps struct {
	Backend    MessageSender
	AuditStore AuditRecorder
	Now        func() time.Time
}

// ExecuteSendTuitionMessage sends a message to the selected students of one tuition.
// PRE: m.Content is non-empty and at least one child is selected
// POST: Message accepted by the backend; duplicates in ChildIDs are sent once
func ExecuteSendTuitionMessage(ctx context.Context, actor Actor, m message.TuitionMessage, deps MessagingDeps) error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.Dedupe()
	if err := deps.Backend.SendTuitionMessage(ctx, m); err != nil {
		return err
	}
	slog.Info("tuition_message_sent", "tuition_id", m.TuitionID, "recipients", len(m.ChildIDs), "actor", actor.Email)
	recordAudit(ctx, deps.AuditStore, actor,
		domainAudit.NewEvent(actor.Email, domainAudit.CategoryMessaging, domainAudit.ActionSend, nowOr(deps.Now)).
			WithResource("tuition", strconv.Itoa(m.TuitionID)).
			WithDescription(fmt.Sprintf("message to %d students", len(m.ChildIDs))))
	return nil
}

// ExecuteBroadcast sends a message to every guardian of the class.
// PRE: b.Content is non-empty
// POST: Broadcast accepted by the backend
func ExecuteBroadcast(ctx context.Context, actor Actor, b message.Broadcast, deps MessagingDeps) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := deps.Backend.Broadcast(ctx, b); err != nil {
		return err
	}
	slog.Info("broadcast_sent", "actor", actor.Email, "length", len(b.Content))
	recordAudit(ctx, deps.AuditStore, actor,
		domainAudit.NewEvent(actor.Email, domainAudit.CategoryMessaging, domainAudit.ActionSend, nowOr(deps.Now)).
			WithResource("broadcast", "").
			WithSeverity(domainAudit.SeverityWarning))
	return nil
}

// ExecutePaymentReminders asks the backend to remind unpaid guardians, using
// the actor's before-payment templates.
// POST: Returns the backend's summary message
func ExecutePaymentReminders(ctx context.Context, actor Actor, deps MessagingDeps) (string, error) {
	msg, err := deps.Backend.PaymentReminders(ctx, actor.Email)
	if err != nil {
		return "", err
	}
	slog.Info("payment_reminders_sent", "actor", actor.Email)
	recordAudit(ctx, deps.AuditStore, actor,
		domainAudit.NewEvent(actor.Email, domainAudit.CategoryMessaging, domainAudit.ActionSend, nowOr(deps.Now)).
			WithResource("reminders", "").
			WithDescription(msg))
	return msg, nil
}
