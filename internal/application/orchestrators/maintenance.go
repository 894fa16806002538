package orchestrators

import (
	"context"
	"log/slog"
	"time"
)

// DefaultAuditRetention is how long audit events are kept.
const DefaultAuditRetention = 180 * 24 * time.Hour

// ExpiredSessionPurger deletes sessions past their expiry.
type ExpiredSessionPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditPurger deletes old audit events.
type AuditPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MaintenanceDeps holds dependencies for housekeeping.
type MaintenanceDeps struct {
	SessionStore   ExpiredSessionPurger
	AuditStore     AuditPurger
	AuditRetention time.Duration
	Now            func() time.Time
}

// MaintenanceResult reports what housekeeping removed.
type MaintenanceResult struct {
	SessionsRemoved int64
	EventsRemoved   int64
}

// ExecuteMaintenance removes expired sessions and audit events past retention.
// PRE: Deps are initialized
// POST: Both purges attempted; the first error is returned
func ExecuteMaintenance(ctx context.Context, deps MaintenanceDeps) (MaintenanceResult, error) {
	now := nowOr(deps.Now)
	retention := deps.AuditRetention
	if retention <= 0 {
		retention = DefaultAuditRetention
	}

	var res MaintenanceResult
	var firstErr error
	n, err := deps.SessionStore.DeleteExpired(ctx, now)
	if err != nil {
		firstErr = err
	}
	res.SessionsRemoved = n

	n, err = deps.AuditStore.PurgeBefore(ctx, now.Add(-retention))
	if err != nil && firstErr == nil {
		firstErr = err
	}
	res.EventsRemoved = n

	if res.SessionsRemoved > 0 || res.EventsRemoved > 0 {
		slog.Info("maintenance_complete", "sessions_removed", res.SessionsRemoved, "events_removed", res.EventsRemoved)
	}
	return res, firstErr
}

// StartMaintenanceWorker runs ExecuteMaintenance every interval until stopCh closes.
func StartMaintenanceWorker(deps MaintenanceDeps, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if _, err := ExecuteMaintenance(ctx, deps); err != nil {
					slog.Error("maintenance_failed", "error", err)
				}
				cancel()
			case <-stopCh:
				return
			}
		}
	}()
}
