package orchestrators

import (
	"context"
	"errors"
	"sort"
	"time"

	"tuition/internal/adapters/backend"
	domainAudit "tuition/internal/domain/audit"
	"tuition/internal/domain/message"
	domainOutbox "tuition/internal/domain/outbox"
	"tuition/internal/domain/report"
	domainSession "tuition/internal/domain/session"
	"tuition/internal/domain/settings"
	"tuition/internal/domain/student"
)

// 10 March 2026 falls in week 2.
var fixedTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

var (
	errDown     = &backend.APIError{Status: 503, Message: "Service Unavailable"}
	errRejected = &backend.APIError{Status: 422, Message: "Student already exists"}
)

type mockAuditStore struct {
	events []domainAudit.Event
}

// Save records the event.
// PRE: e is valid
// POST: e appended to events
func (m *mockAuditStore) Save(_ context.Context, e domainAudit.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockAuditStore) last() domainAudit.Event {
	if len(m.events) == 0 {
		return domainAudit.Event{}
	}
	return m.events[len(m.events)-1]
}

type mockOutboxStore struct {
	entries map[string]domainOutbox.Entry
	saveErr error
}

func newMockOutboxStore(entries ...domainOutbox.Entry) *mockOutboxStore {
	m := &mockOutboxStore{entries: map[string]domainOutbox.Entry{}}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

// GetByID returns a stored entry.
// PRE: id is non-empty
// POST: Returns the entry or an error
func (m *mockOutboxStore) GetByID(_ context.Context, id string) (domainOutbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return domainOutbox.Entry{}, errors.New("not found")
	}
	return e, nil
}

// Save stores the entry.
// PRE: e has an ID
// POST: Entry replaced by ID
func (m *mockOutboxStore) Save(_ context.Context, e domainOutbox.Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries[e.ID] = e
	return nil
}

// ListPending returns pending and retrying entries ordered by ID.
// PRE: limit > 0
// POST: Returns at most limit entries
func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]domainOutbox.Entry, error) {
	var out []domainOutbox.Entry
	for _, e := range m.entries {
		if e.Status == domainOutbox.StatusPending || e.Status == domainOutbox.StatusRetrying {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockSessionStore struct {
	sessions      map[string]domainSession.Session
	deletedEmails []string
	expired       int64
}

func newMockSessionStore(ss ...domainSession.Session) *mockSessionStore {
	m := &mockSessionStore{sessions: map[string]domainSession.Session{}}
	for _, s := range ss {
		m.sessions[s.ID] = s
	}
	return m
}

// Save stores the session.
// PRE: s passes Validate
// POST: Session replaced by ID
func (m *mockSessionStore) Save(_ context.Context, s domainSession.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.sessions[s.ID] = s
	return nil
}

// Delete removes a session.
func (m *mockSessionStore) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

// DeleteByEmail removes every session of email.
func (m *mockSessionStore) DeleteByEmail(_ context.Context, email string) error {
	m.deletedEmails = append(m.deletedEmails, email)
	for id, s := range m.sessions {
		if s.Email == email {
			delete(m.sessions, id)
		}
	}
	return nil
}

// DeleteExpired reports the seeded count.
func (m *mockSessionStore) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return m.expired, nil
}

// LatestByEmail returns any live session of email.
// PRE: email is non-empty
// POST: Returns ErrNotFound when none is live
func (m *mockSessionStore) LatestByEmail(_ context.Context, email string, now time.Time) (domainSession.Session, error) {
	for _, s := range m.sessions {
		if s.Email == email && !s.Expired(now) {
			return s, nil
		}
	}
	return domainSession.Session{}, domainSession.ErrNotFound
}

// mockBackend stands in for a token-bound backend session. errs is keyed by method name.
type mockBackend struct {
	token   string
	errs    map[string]error
	calls   []string
	week    [4]int
	paid    bool
	msg     message.TuitionMessage
	saved   student.Student
	profile settings.Profile
	mode    settings.Mode
	history backend.History
}

func (m *mockBackend) call(name string) error {
	m.calls = append(m.calls, name)
	return m.errs[name]
}

// Login returns a fixed token.
func (m *mockBackend) Login(_ context.Context, email, _ string) (backend.LoginResult, error) {
	if err := m.call("Login"); err != nil {
		return backend.LoginResult{}, err
	}
	return backend.LoginResult{Token: "tok-" + email, Email: email, Name: "Dilani"}, nil
}

// GetMode returns the seeded mode.
func (m *mockBackend) GetMode(_ context.Context, _ string) (settings.Mode, error) {
	return m.mode, m.call("GetMode")
}

// UpdateWeek records the write.
func (m *mockBackend) UpdateWeek(_ context.Context, childID, tuitionID, week int, value bool) error {
	m.week = [4]int{childID, tuitionID, week, 0}
	if value {
		m.week[3] = 1
	}
	return m.call("UpdateWeek")
}

// UpdatePaid records the write.
func (m *mockBackend) UpdatePaid(_ context.Context, _, _ int, paid bool, _ string) error {
	m.paid = paid
	return m.call("UpdatePaid")
}

// DeactivateStudent records the call.
func (m *mockBackend) DeactivateStudent(_ context.Context, _, _ int) error {
	return m.call("DeactivateStudent")
}

// SendTuitionMessage records the message.
func (m *mockBackend) SendTuitionMessage(_ context.Context, msg message.TuitionMessage) error {
	m.msg = msg
	return m.call("SendTuitionMessage")
}

// Broadcast records the call.
func (m *mockBackend) Broadcast(_ context.Context, _ message.Broadcast) error {
	return m.call("Broadcast")
}

// PaymentReminders returns a summary.
func (m *mockBackend) PaymentReminders(_ context.Context, _ string) (string, error) {
	return "3 reminders sent", m.call("PaymentReminders")
}

// CreateStudent records the student.
func (m *mockBackend) CreateStudent(_ context.Context, st student.Student) (string, error) {
	m.saved = st
	return "Student created", m.call("CreateStudent")
}

// UpdateStudent records the student.
func (m *mockBackend) UpdateStudent(_ context.Context, _ int, st student.Student) (string, error) {
	m.saved = st
	return "Student updated", m.call("UpdateStudent")
}

// EnableStudent records the call.
func (m *mockBackend) EnableStudent(_ context.Context, _ string, _ int) error {
	return m.call("EnableStudent")
}

// UpdateUser records the profile.
func (m *mockBackend) UpdateUser(_ context.Context, p settings.Profile, _ settings.Mode) error {
	m.profile = p
	return m.call("UpdateUser")
}

// UpdateDay records the call.
func (m *mockBackend) UpdateDay(_ context.Context, _, _ int) error {
	return m.call("UpdateDay")
}

// SetUserStatus records the call.
func (m *mockBackend) SetUserStatus(_ context.Context, _ string, _ settings.UserStatus) error {
	return m.call("SetUserStatus")
}

// SetMode records the mode.
func (m *mockBackend) SetMode(_ context.Context, _ string, mode settings.Mode) error {
	m.mode = mode
	return m.call("SetMode")
}

// History returns the seeded history.
func (m *mockBackend) History(_ context.Context, _, _, _ int) (backend.History, error) {
	return m.history, m.call("History")
}

func sampleHistory() backend.History {
	created := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return backend.History{
		DayHeaders: []string{"Sat 07", "Sat 14", "Sat 21", "Sat 28"},
		Rows: []report.Row{
			{ChildID: 1, Name: "Amaya", Status: true, Weeks: [5]bool{true, true, false, true}, CreatedAt: created},
			{ChildID: 2, Name: "Binu", Status: true, Weeks: [5]bool{true}, CreatedAt: created},
			{ChildID: 3, Name: "Left Early", CreatedAt: created},
		},
	}
}

func liveSession(email string) domainSession.Session {
	s, _ := domainSession.New(email, "Dilani", "tok-"+email, false, fixedTime.Add(-time.Hour), 24*time.Hour)
	return s
}
