package projections

import (
	"context"
	"time"

	auditStore "tuition/internal/adapters/storage/audit"
	domainAudit "tuition/internal/domain/audit"
	"tuition/internal/application/listutil"
	domainOutbox "tuition/internal/domain/outbox"
	"tuition/internal/perf"
)

// AdminStatus is the operator page: timings, queue health and recent audit events.
type AdminStatus struct {
	Perf         perf.Snapshot
	OutboxCounts map[string]int
	Pending      []domainOutbox.Entry
	Failed       []domainOutbox.Entry
	Events       []domainAudit.Event
	EventPage    listutil.PageInfo
	Window       time.Duration
}

// AdminStatusInput filters and pages the audit list.
type AdminStatusInput struct {
	Window     time.Duration // perf window; defaults to one hour
	Category   domainAudit.Category
	ActorEmail string
	Limit      int // outbox list cap
	Page       listutil.PageParams
	Now        time.Time
}

// AdminStatusDeps holds dependencies for the admin status projection.
type AdminStatusDeps struct {
	Collector   *perf.Collector // optional
	OutboxStore OutboxReader
	AuditStore  AuditLister
}

// QueryAdminStatus gathers the operator page.
// PRE: Deps stores are connected
// POST: Outbox lists are capped at input.Limit (default 50); events hold one
// page of the audit trail, EventPage describes it
func QueryAdminStatus(ctx context.Context, input AdminStatusInput, deps AdminStatusDeps) (AdminStatus, error) {
	if input.Window <= 0 {
		input.Window = time.Hour
	}
	if input.Limit <= 0 {
		input.Limit = 50
	}
	if input.Now.IsZero() {
		input.Now = time.Now()
	}
	since := input.Now.Add(-input.Window)

	st := AdminStatus{Window: input.Window}
	if deps.Collector != nil {
		st.Perf = deps.Collector.Snapshot(since, 10)
	}

	var err error
	if st.OutboxCounts, err = deps.OutboxStore.CountByStatus(ctx); err != nil {
		return AdminStatus{}, err
	}
	if st.Pending, err = deps.OutboxStore.ListPending(ctx, input.Limit); err != nil {
		return AdminStatus{}, err
	}
	if st.Failed, err = deps.OutboxStore.ListFailed(ctx, input.Limit); err != nil {
		return AdminStatus{}, err
	}
	filter := auditStore.Filter{Category: input.Category, ActorEmail: input.ActorEmail}
	total, err := deps.AuditStore.Count(ctx, filter)
	if err != nil {
		return AdminStatus{}, err
	}
	st.EventPage = listutil.NewPageInfo(input.Page, total)
	filter.Offset = st.EventPage.Offset()
	if st.Events, err = deps.AuditStore.List(ctx, filter, st.EventPage.PerPage); err != nil {
		return AdminStatus{}, err
	}
	return st, nil
}
