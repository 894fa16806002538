package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tuition/internal/adapters/backend"
	domainAudit "tuition/internal/domain/audit"
	domainOutbox "tuition/internal/domain/outbox"
	"tuition/internal/domain/report"
)

// ReportWriter is the subset of the backend session used by the grade page checkboxes.
type ReportWriter interface {
	UpdateWeek(ctx context.Context, childID, tuitionID, week int, value bool) error
	UpdatePaid(ctx context.Context, childID, tuitionID int, paid bool, email string) error
	DeactivateStudent(ctx context.Context, childID, tuitionID int) error
}

// ReportWriteDeps holds dependencies for the grade page writes.
type ReportWriteDeps struct {
	Backend     ReportWriter
	OutboxStore OutboxQueue
	AuditStore  AuditRecorder
	Now         func() time.Time
	GenerateID  func() string
}

// ToggleWeekInput carries one week checkbox change.
type ToggleWeekInput struct {
	ChildID   int
	TuitionID int
	Week      int
	Value     bool
}

// ToggleResult tells the caller whether a write went through or was queued.
type ToggleResult struct {
	Queued bool
}

// ExecuteToggleWeek records attendance for one week of one student.
// PRE: ChildID and TuitionID are positive
// POST: Backend updated, or queued in the outbox when the backend is unreachable;
// older queued writes of the same week are abandoned
// INVARIANT: Weeks before the current week cannot change
func ExecuteToggleWeek(ctx context.Context, actor Actor, input ToggleWeekInput, deps ReportWriteDeps) (ToggleResult, error) {
	if err := validateIDs(input.ChildID, input.TuitionID); err != nil {
		return ToggleResult{}, err
	}
	if input.Week < 1 || input.Week > report.MaxWeeks {
		return ToggleResult{}, report.ErrInvalidWeek
	}
	now := nowOr(deps.Now)
	if !report.WeekEditable(input.Week, now) {
		return ToggleResult{}, report.ErrWeekLocked
	}

	ev := domainAudit.NewEvent(actor.Email, domainAudit.CategoryAttendance, domainAudit.ActionUpdate, now).
		WithResource("child", strconv.Itoa(input.ChildID)).
		WithDescription(fmt.Sprintf("%s=%t tuition %d", report.WeekField(input.Week), input.Value, input.TuitionID))

	payload := domainOutbox.WeekReport{ChildID: input.ChildID, TuitionID: input.TuitionID, Week: input.Week, Value: input.Value}
	if err := supersedeQueued(ctx, deps.OutboxStore, payload.Key()); err != nil {
		return ToggleResult{}, err
	}

	err := deps.Backend.UpdateWeek(ctx, input.ChildID, input.TuitionID, input.Week, input.Value)
	if err == nil {
		slog.Info("week_report_updated", "child_id", input.ChildID, "tuition_id", input.TuitionID, "week", input.Week, "value", input.Value)
		recordAudit(ctx, deps.AuditStore, actor, ev)
		return ToggleResult{}, nil
	}
	if !backend.IsTransient(err) {
		return ToggleResult{}, err
	}

	if qerr := queue(ctx, deps, actor, domainOutbox.ActionWeekReport, payload, now); qerr != nil {
		return ToggleResult{}, fmt.Errorf("%w (queue: %v)", err, qerr)
	}
	recordAudit(ctx, deps.AuditStore, actor, ev.WithSeverity(domainAudit.SeverityWarning).
		WithDescription(ev.Description+" (queued)"))
	return ToggleResult{Queued: true}, nil
}

// TogglePaidInput carries one paid checkbox change.
type TogglePaidInput struct {
	ChildID   int
	TuitionID int
	Paid      bool
}

// ExecuteTogglePaid records a payment. The backend sends the after-payment
// WhatsApp template on behalf of the actor.
// PRE: ChildID and TuitionID are positive
// POST: Backend updated, or queued in the outbox when the backend is unreachable;
// older queued writes of the same flag are abandoned
func ExecuteTogglePaid(ctx context.Context, actor Actor, input TogglePaidInput, deps ReportWriteDeps) (ToggleResult, error) {
	if err := validateIDs(input.ChildID, input.TuitionID); err != nil {
		return ToggleResult{}, err
	}
	now := nowOr(deps.Now)
	ev := domainAudit.NewEvent(actor.Email, domainAudit.CategoryPayment, domainAudit.ActionUpdate, now).
		WithResource("child", strconv.Itoa(input.ChildID)).
		WithDescription(fmt.Sprintf("paid=%t tuition %d", input.Paid, input.TuitionID))

	payload := domainOutbox.PaidStatus{ChildID: input.ChildID, TuitionID: input.TuitionID, Paid: input.Paid, Email: actor.Email}
	if err := supersedeQueued(ctx, deps.OutboxStore, payload.Key()); err != nil {
		return ToggleResult{}, err
	}

	err := deps.Backend.UpdatePaid(ctx, input.ChildID, input.TuitionID, input.Paid, actor.Email)
	if err == nil {
		slog.Info("paid_status_updated", "child_id", input.ChildID, "tuition_id", input.TuitionID, "paid", input.Paid)
		recordAudit(ctx, deps.AuditStore, actor, ev)
		return ToggleResult{}, nil
	}
	if !backend.IsTransient(err) {
		return ToggleResult{}, err
	}

	if qerr := queue(ctx, deps, actor, domainOutbox.ActionPaidStatus, payload, now); qerr != nil {
		return ToggleResult{}, fmt.Errorf("%w (queue: %v)", err, qerr)
	}
	recordAudit(ctx, deps.AuditStore, actor, ev.WithSeverity(domainAudit.SeverityWarning).
		WithDescription(ev.Description+" (queued)"))
	return ToggleResult{Queued: true}, nil
}

// ExecuteRemoveStudent deactivates a student's enrolment in a tuition.
// Removals are never queued: the user must see whether it happened.
// PRE: childID and tuitionID are positive
// POST: Student is inactive on the backend
func ExecuteRemoveStudent(ctx context.Context, actor Actor, childID, tuitionID int, deps ReportWriteDeps) error {
	if err := validateIDs(childID, tuitionID); err != nil {
		return err
	}
	if err := deps.Backend.DeactivateStudent(ctx, childID, tuitionID); err != nil {
		return err
	}
	slog.Info("student_removed", "child_id", childID, "tuition_id", tuitionID, "actor", actor.Email)
	recordAudit(ctx, deps.AuditStore, actor,
		domainAudit.NewEvent(actor.Email, domainAudit.CategoryStudent, domainAudit.ActionRemove, nowOr(deps.Now)).
			WithResource("child", strconv.Itoa(childID)).
			WithDescription(fmt.Sprintf("removed from tuition %d", tuitionID)))
	return nil
}

func validateIDs(childID, tuitionID int) error {
	if childID <= 0 {
		return report.ErrEmptyChildID
	}
	if tuitionID <= 0 {
		return report.ErrEmptyTuitionID
	}
	return nil
}

// supersedeScanLimit bounds the queue scan; the queue only grows during outages.
const supersedeScanLimit = 500

// supersedeQueued abandons queued writes to key. It runs before every new
// write so a later replay cannot revert the newer value.
func supersedeQueued(ctx context.Context, store OutboxQueue, key string) error {
	pending, err := store.ListPending(ctx, supersedeScanLimit)
	if err != nil {
		return fmt.Errorf("list queued writes: %w", err)
	}
	for _, e := range pending {
		if e.WriteKey() != key {
			continue
		}
		e.MarkSuperseded()
		if err := store.Save(ctx, e); err != nil {
			return fmt.Errorf("supersede %s: %w", e.ID, err)
		}
		slog.Info("outbox_entry_superseded", "entry_id", e.ID, "key", key)
	}
	return nil
}

func queue(ctx context.Context, deps ReportWriteDeps, actor Actor, action string, payload any, now time.Time) error {
	id := uuid.NewString
	if deps.GenerateID != nil {
		id = deps.GenerateID
	}
	entry, err := domainOutbox.NewEntry(id(), action, actor.Email, payload, now)
	if err != nil {
		return err
	}
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		return err
	}
	slog.Warn("backend_write_queued", "entry_id", entry.ID, "action_type", action, "actor", actor.Email)
	return nil
}
