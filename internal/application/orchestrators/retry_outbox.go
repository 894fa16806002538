package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tuition/internal/adapters/email"
	domainOutbox "tuition/internal/domain/outbox"
	domainSession "tuition/internal/domain/session"
)

// OutboxStore is the outbox persistence used by the processor.
type OutboxStore interface {
	GetByID(ctx context.Context, id string) (domainOutbox.Entry, error)
	Save(ctx context.Context, e domainOutbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
}

// OutboxProcessor replays queued backend writes and report emails.
type OutboxProcessor struct {
	store     OutboxStore
	executors map[string]ActionExecutor
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
}

// ActionExecutor executes a specific type of queued action.
type ActionExecutor interface {
	Execute(ctx context.Context, entry domainOutbox.Entry) error
}

// OutboxProcessorConfig tunes the backoff. Zero values take defaults.
type OutboxProcessorConfig struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	BatchSize int
	Now       func() time.Time
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store OutboxStore, executors map[string]ActionExecutor, cfg OutboxProcessorConfig) *OutboxProcessor {
	p := &OutboxProcessor{
		store:     store,
		executors: executors,
		baseDelay: 30 * time.Second,
		maxDelay:  time.Hour,
		batchSize: 10,
		now:       cfg.Now,
	}
	if cfg.BaseDelay > 0 {
		p.baseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		p.maxDelay = cfg.MaxDelay
	}
	if cfg.BatchSize > 0 {
		p.batchSize = cfg.BatchSize
	}
	return p
}

// ProcessPending processes pending outbox entries with retries.
// PRE: Context is valid
// POST: Due entries are attempted once; failures keep their backoff
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}

	for _, entry := range entries {
		if !entry.Due(nowOr(p.now), p.baseDelay, p.maxDelay) {
			continue
		}
		if err := p.processEntry(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}
	return nil
}

func (p *OutboxProcessor) processEntry(ctx context.Context, entry domainOutbox.Entry) error {
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkAbandoned()
		entry.ErrorMessage = "no executor registered for " + entry.ActionType
		return p.store.Save(ctx, entry)
	}

	entry.MarkAttempt(nowOr(p.now))
	if err := executor.Execute(ctx, entry); err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err.Error())
	} else {
		entry.MarkSuccess()
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "attempt", entry.Attempts)
	}
	return p.store.Save(ctx, entry)
}

// ProcessSingle replays one entry now, ignoring backoff (admin retry).
// PRE: entryID is non-empty
// POST: Entry is attempted and its status saved
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.Status == domainOutbox.StatusDone || entry.Status == domainOutbox.StatusAbandoned {
		return fmt.Errorf("entry %s is %s and cannot be retried", entryID, entry.Status)
	}
	if entry.Attempts >= entry.MaxAttempts {
		// Manual retries get one more attempt beyond the automatic limit.
		entry.MaxAttempts = entry.Attempts + 1
	}
	return p.processEntry(ctx, entry)
}

// AbandonEntry marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// --- Executors ---

// ErrNoLiveSession means the user who queued an entry has no session whose
// backend token could replay it.
var ErrNoLiveSession = errors.New("actor has no live session")

// ActorSessions finds the newest live session of a dashboard user.
type ActorSessions interface {
	LatestByEmail(ctx context.Context, email string, now time.Time) (domainSession.Session, error)
}

func actorToken(ctx context.Context, sessions ActorSessions, entry domainOutbox.Entry, now time.Time) (string, error) {
	sess, err := sessions.LatestByEmail(ctx, entry.ActorEmail, now)
	if errors.Is(err, domainSession.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNoLiveSession, entry.ActorEmail)
	}
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// ReportWriteExecutor replays week and paid checkbox writes as the user who made them.
type ReportWriteExecutor struct {
	Sessions ActorSessions
	Backend  func(token string) ReportWriter
	Now      func() time.Time
}

// Execute replays one checkbox write.
// PRE: entry is a week_report or paid_status entry
// POST: Backend updated or error returned
func (e *ReportWriteExecutor) Execute(ctx context.Context, entry domainOutbox.Entry) error {
	token, err := actorToken(ctx, e.Sessions, entry, nowOr(e.Now))
	if err != nil {
		return err
	}
	be := e.Backend(token)

	switch entry.ActionType {
	case domainOutbox.ActionWeekReport:
		var p domainOutbox.WeekReport
		if err := entry.Decode(&p); err != nil {
			return err
		}
		return be.UpdateWeek(ctx, p.ChildID, p.TuitionID, p.Week, p.Value)
	case domainOutbox.ActionPaidStatus:
		var p domainOutbox.PaidStatus
		if err := entry.Decode(&p); err != nil {
			return err
		}
		return be.UpdatePaid(ctx, p.ChildID, p.TuitionID, p.Paid, p.Email)
	}
	return fmt.Errorf("%w: %s", domainOutbox.ErrUnknownActionType, entry.ActionType)
}

// ReportEmailExecutor rebuilds and sends a queued report email.
type ReportEmailExecutor struct {
	Sessions ActorSessions
	Backend  func(token string) HistoryReader
	Sender   email.Sender
	Now      func() time.Time
}

// Execute fetches the month again and sends the email.
// PRE: entry is a report_email entry
// POST: Email sent or error returned
func (e *ReportEmailExecutor) Execute(ctx context.Context, entry domainOutbox.Entry) error {
	var p domainOutbox.ReportEmail
	if err := entry.Decode(&p); err != nil {
		return err
	}
	token, err := actorToken(ctx, e.Sessions, entry, nowOr(e.Now))
	if err != nil {
		return err
	}
	req, err := buildReportEmail(ctx, e.Backend(token), p)
	if err != nil {
		return err
	}
	_, err = e.Sender.Send(ctx, req)
	return err
}

// --- Background Worker ---

// StartBackgroundWorker starts a background goroutine that periodically processes pending outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
