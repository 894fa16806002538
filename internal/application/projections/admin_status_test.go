package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	auditStore "tuition/internal/adapters/storage/audit"
	"tuition/internal/application/listutil"
	domainAudit "tuition/internal/domain/audit"
	domainOutbox "tuition/internal/domain/outbox"
	"tuition/internal/perf"
)

type mockOutboxReader struct {
	err     error
	pending []domainOutbox.Entry
	failed  []domainOutbox.Entry
	limit   int
}

// CountByStatus tallies the seeded entries.
// PRE: none
// POST: Returns counts keyed by status
func (m *mockOutboxReader) CountByStatus(_ context.Context) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[string]int{}
	for _, e := range append(append([]domainOutbox.Entry{}, m.pending...), m.failed...) {
		counts[e.Status]++
	}
	return counts, nil
}

// ListFailed returns the seeded failed entries.
func (m *mockOutboxReader) ListFailed(_ context.Context, limit int) ([]domainOutbox.Entry, error) {
	m.limit = limit
	return m.failed, nil
}

// ListPending returns the seeded pending entries.
func (m *mockOutboxReader) ListPending(_ context.Context, limit int) ([]domainOutbox.Entry, error) {
	return m.pending, nil
}

type mockAuditLister struct {
	events []domainAudit.Event
	total  int
	filter auditStore.Filter
	limit  int
}

// Count returns the seeded total.
func (m *mockAuditLister) Count(_ context.Context, _ auditStore.Filter) (int, error) {
	return m.total, nil
}

// List records the filter and returns the seeded events.
func (m *mockAuditLister) List(_ context.Context, f auditStore.Filter, limit int) ([]domainAudit.Event, error) {
	m.filter, m.limit = f, limit
	return m.events, nil
}

func TestQueryAdminStatus(t *testing.T) {
	collector := perf.NewCollector(10)
	collector.Record(perf.Entry{Kind: perf.KindRequest, Label: "GET /s1b", StatusCode: 200, DurationMs: 12, Timestamp: fixedTime.Add(-time.Minute)})
	collector.Record(perf.Entry{Kind: perf.KindRequest, Label: "GET /old", StatusCode: 200, DurationMs: 30, Timestamp: fixedTime.Add(-2 * time.Hour)})

	ob := &mockOutboxReader{
		pending: []domainOutbox.Entry{{ID: "p1", Status: domainOutbox.StatusPending}, {ID: "p2", Status: domainOutbox.StatusRetrying}},
		failed:  []domainOutbox.Entry{{ID: "f1", Status: domainOutbox.StatusFailed}},
	}
	al := &mockAuditLister{events: []domainAudit.Event{{ID: "e1", Category: domainAudit.CategoryPayment}}, total: 1}

	st, err := QueryAdminStatus(context.Background(),
		AdminStatusInput{Category: domainAudit.CategoryPayment, ActorEmail: "staff@example.com", Now: fixedTime},
		AdminStatusDeps{Collector: collector, OutboxStore: ob, AuditStore: al})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.Window != time.Hour {
		t.Errorf("Window = %v, want 1h", st.Window)
	}
	if len(st.Perf.SlowestPaths) != 1 || st.Perf.SlowestPaths[0].Label != "GET /s1b" {
		t.Errorf("SlowestPaths = %+v", st.Perf.SlowestPaths)
	}
	if st.OutboxCounts[domainOutbox.StatusPending] != 1 || st.OutboxCounts[domainOutbox.StatusFailed] != 1 {
		t.Errorf("OutboxCounts = %v", st.OutboxCounts)
	}
	if len(st.Pending) != 2 || len(st.Failed) != 1 || len(st.Events) != 1 {
		t.Errorf("status = %+v", st)
	}
	if ob.limit != 50 || al.limit != 20 {
		t.Errorf("limits = %d, %d, want 50 and 20", ob.limit, al.limit)
	}
	if al.filter.Category != domainAudit.CategoryPayment || al.filter.ActorEmail != "staff@example.com" {
		t.Errorf("filter = %+v", al.filter)
	}
}

func TestQueryAdminStatus_AuditPaging(t *testing.T) {
	al := &mockAuditLister{total: 45}
	st, err := QueryAdminStatus(context.Background(),
		AdminStatusInput{Page: listutil.PageParams{Page: 9, PerPage: 20}, Now: fixedTime},
		AdminStatusDeps{OutboxStore: &mockOutboxReader{}, AuditStore: al})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.EventPage.Page != 3 || st.EventPage.TotalPages != 3 {
		t.Errorf("EventPage = %+v, want page 3 of 3", st.EventPage)
	}
	if al.filter.Offset != 40 || al.limit != 20 {
		t.Errorf("offset %d limit %d, want 40 and 20", al.filter.Offset, al.limit)
	}
}

func TestQueryAdminStatus_NoCollector(t *testing.T) {
	st, err := QueryAdminStatus(context.Background(), AdminStatusInput{Limit: 5, Now: fixedTime},
		AdminStatusDeps{OutboxStore: &mockOutboxReader{}, AuditStore: &mockAuditLister{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Perf.TotalRecorded != 0 {
		t.Errorf("Perf = %+v", st.Perf)
	}
}

func TestQueryAdminStatus_StoreError(t *testing.T) {
	_, err := QueryAdminStatus(context.Background(), AdminStatusInput{Now: fixedTime},
		AdminStatusDeps{OutboxStore: &mockOutboxReader{err: errors.New("disk")}, AuditStore: &mockAuditLister{}})
	if err == nil {
		t.Fatal("expected error")
	}
}
