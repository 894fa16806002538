package web

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"tuition/internal/adapters/backend"
	"tuition/internal/adapters/email"
	"tuition/internal/adapters/http/middleware"
	auditStore "tuition/internal/adapters/storage/audit"
	"tuition/internal/application/orchestrators"
	domainAudit "tuition/internal/domain/audit"
	"tuition/internal/domain/message"
	domainOutbox "tuition/internal/domain/outbox"
	"tuition/internal/domain/report"
	domainSession "tuition/internal/domain/session"
	"tuition/internal/domain/settings"
	"tuition/internal/domain/student"
)

// fixedNow falls in week 2 of March 2026.
var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// --- Backend ---

type mockBackend struct {
	mu    sync.Mutex
	calls []string

	err      error // returned by every call when set
	writeErr error // returned by writes only

	categories []backend.CategoryGrades
	cards      []backend.DashboardCard
	stats      backend.Stats
	roster     backend.Roster
	history    backend.History
	grades     []backend.GradeOption
	students   map[int]student.Student
	profile    settings.Profile
	users      []backend.UserSummary
	mode       settings.Mode

	savedStudent student.Student
	savedProfile settings.Profile
	sentMessage  message.TuitionMessage
	broadcast    message.Broadcast
}

func (m *mockBackend) record(name string) error {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
	return m.err
}

func (m *mockBackend) write(name string) error {
	if err := m.record(name); err != nil {
		return err
	}
	return m.writeErr
}

func (m *mockBackend) called(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (m *mockBackend) CategoriesWithGrades(ctx context.Context, class string) ([]backend.CategoryGrades, error) {
	return m.categories, m.record("CategoriesWithGrades")
}

func (m *mockBackend) DashboardData(ctx context.Context, class string) ([]backend.DashboardCard, error) {
	return m.cards, m.record("DashboardData")
}

func (m *mockBackend) DashboardStats(ctx context.Context, class string) (backend.Stats, error) {
	return m.stats, m.record("DashboardStats")
}

func (m *mockBackend) FetchStudentData(ctx context.Context, grades []string, class, category string) (backend.Roster, error) {
	return m.roster, m.record("FetchStudentData")
}

func (m *mockBackend) Years(ctx context.Context) ([]backend.Year, error) {
	return []backend.Year{{ID: 1, Year: "2026"}}, m.record("Years")
}

func (m *mockBackend) Months(ctx context.Context) ([]backend.Month, error) {
	return []backend.Month{{ID: 2, Name: "February"}, {ID: 3, Name: "March"}}, m.record("Months")
}

func (m *mockBackend) Grades(ctx context.Context, class string) ([]backend.GradeOption, error) {
	return m.grades, m.record("Grades")
}

func (m *mockBackend) History(ctx context.Context, tuitionID, year, month int) (backend.History, error) {
	return m.history, m.record("History")
}

func (m *mockBackend) GetStudent(ctx context.Context, childID int) (student.Student, error) {
	if err := m.record("GetStudent"); err != nil {
		return student.Student{}, err
	}
	st, ok := m.students[childID]
	if !ok {
		return student.Student{}, &backend.APIError{Status: http.StatusNotFound, Message: "student not found"}
	}
	return st, nil
}

func (m *mockBackend) SearchStudents(ctx context.Context, name string) ([]student.Student, error) {
	if err := m.record("SearchStudents"); err != nil {
		return nil, err
	}
	var out []student.Student
	for _, st := range m.students {
		if strings.Contains(strings.ToLower(st.Name), strings.ToLower(name)) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockBackend) GetUser(ctx context.Context, email string) (settings.Profile, error) {
	return m.profile, m.record("GetUser")
}

func (m *mockBackend) GradesAndDays(ctx context.Context, class string) ([]backend.GradeOption, error) {
	return m.grades, m.record("GradesAndDays")
}

func (m *mockBackend) ListUsers(ctx context.Context) ([]backend.UserSummary, error) {
	return m.users, m.record("ListUsers")
}

func (m *mockBackend) UpdateWeek(ctx context.Context, childID, tuitionID, week int, value bool) error {
	return m.write("UpdateWeek")
}

func (m *mockBackend) UpdatePaid(ctx context.Context, childID, tuitionID int, paid bool, email string) error {
	return m.write("UpdatePaid")
}

func (m *mockBackend) DeactivateStudent(ctx context.Context, childID, tuitionID int) error {
	return m.write("DeactivateStudent")
}

func (m *mockBackend) SendTuitionMessage(ctx context.Context, msg message.TuitionMessage) error {
	m.sentMessage = msg
	return m.write("SendTuitionMessage")
}

func (m *mockBackend) Broadcast(ctx context.Context, b message.Broadcast) error {
	m.broadcast = b
	return m.write("Broadcast")
}

func (m *mockBackend) PaymentReminders(ctx context.Context, email string) (string, error) {
	return "3 reminders sent", m.write("PaymentReminders")
}

func (m *mockBackend) CreateStudent(ctx context.Context, st student.Student) (string, error) {
	m.savedStudent = st
	return "Student created", m.write("CreateStudent")
}

func (m *mockBackend) UpdateStudent(ctx context.Context, childID int, st student.Student) (string, error) {
	m.savedStudent = st
	return "Student updated", m.write("UpdateStudent")
}

func (m *mockBackend) EnableStudent(ctx context.Context, sno string, tuitionID int) error {
	return m.write("EnableStudent")
}

func (m *mockBackend) UpdateUser(ctx context.Context, p settings.Profile, mode settings.Mode) error {
	m.savedProfile = p
	return m.write("UpdateUser")
}

func (m *mockBackend) UpdateDay(ctx context.Context, tuitionID, dayID int) error {
	return m.write("UpdateDay")
}

func (m *mockBackend) SetUserStatus(ctx context.Context, email string, status settings.UserStatus) error {
	return m.write("SetUserStatus")
}

func (m *mockBackend) SetMode(ctx context.Context, email string, mode settings.Mode) error {
	m.mode = mode
	return m.write("SetMode")
}

func (m *mockBackend) GetMode(ctx context.Context, email string) (settings.Mode, error) {
	return m.mode, m.record("GetMode")
}

type mockLogin struct {
	res backend.LoginResult
	err error
}

func (m *mockLogin) Login(ctx context.Context, email, password string) (backend.LoginResult, error) {
	return m.res, m.err
}

// --- Stores ---

type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainSession.Session
}

func (m *mockSessionStore) Save(ctx context.Context, s domainSession.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string, now time.Time) (domainSession.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domainSession.Session{}, domainSession.ErrNotFound
	}
	if s.Expired(now) {
		return domainSession.Session{}, domainSession.ErrExpired
	}
	return s, nil
}

func (m *mockSessionStore) LatestByEmail(ctx context.Context, email string, now time.Time) (domainSession.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest domainSession.Session
	for _, s := range m.sessions {
		if s.Email == email && !s.Expired(now) && s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest.ID == "" {
		return domainSession.Session{}, domainSession.ErrNotFound
	}
	return latest, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *mockSessionStore) DeleteByEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.Email == email {
			delete(m.sessions, id)
		}
	}
	return nil
}

type mockOutboxStore struct {
	mu      sync.Mutex
	entries map[string]domainOutbox.Entry
}

func (m *mockOutboxStore) GetByID(ctx context.Context, id string) (domainOutbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domainOutbox.Entry{}, sql.ErrNoRows
	}
	return e, nil
}

func (m *mockOutboxStore) Save(ctx context.Context, e domainOutbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) list(match func(domainOutbox.Entry) bool, limit int) []domainOutbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domainOutbox.Entry
	for _, e := range m.entries {
		if match(e) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockOutboxStore) ListPending(ctx context.Context, limit int) ([]domainOutbox.Entry, error) {
	return m.list(func(e domainOutbox.Entry) bool {
		return e.Status == domainOutbox.StatusPending || e.Status == domainOutbox.StatusRetrying
	}, limit), nil
}

func (m *mockOutboxStore) ListFailed(ctx context.Context, limit int) ([]domainOutbox.Entry, error) {
	return m.list(func(e domainOutbox.Entry) bool { return e.Status == domainOutbox.StatusFailed }, limit), nil
}

func (m *mockOutboxStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, e := range m.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (m *mockOutboxStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

type mockAuditStore struct {
	mu     sync.Mutex
	events []domainAudit.Event
}

func (m *mockAuditStore) Save(ctx context.Context, ev domainAudit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockAuditStore) List(ctx context.Context, f auditStore.Filter, limit int) ([]domainAudit.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domainAudit.Event
	for _, ev := range m.events {
		if f.Category != "" && ev.Category != f.Category {
			continue
		}
		if f.ActorEmail != "" && ev.ActorEmail != f.ActorEmail {
			continue
		}
		out = append(out, ev)
	}
	out = out[min(f.Offset, len(out)):]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockAuditStore) Count(ctx context.Context, f auditStore.Filter) (int, error) {
	events, _ := m.List(ctx, auditStore.Filter{Category: f.Category, ActorEmail: f.ActorEmail}, len(m.events)+1)
	return len(events), nil
}

func (m *mockAuditStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *mockAuditStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type mockSender struct {
	sent []email.SendRequest
	err  error
}

func (m *mockSender) Send(ctx context.Context, req email.SendRequest) (email.SendResult, error) {
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: "msg-1", SentAt: fixedNow}, nil
}

// --- Test helpers ---

type testEnv struct {
	backend  *mockBackend
	login    *mockLogin
	sessions *mockSessionStore
	outbox   *mockOutboxStore
	audit    *mockAuditStore
	sender   *mockSender
}

// setup installs mock stores and services in the package globals and pins the clock.
func setup(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		backend:  &mockBackend{students: map[int]student.Student{}, mode: settings.ModeDark},
		login:    &mockLogin{},
		sessions: &mockSessionStore{sessions: map[string]domainSession.Session{}},
		outbox:   &mockOutboxStore{entries: map[string]domainOutbox.Entry{}},
		audit:    &mockAuditStore{},
		sender:   &mockSender{},
	}
	stores = &Stores{SessionStore: env.sessions, OutboxStore: env.outbox, AuditStore: env.audit}
	services = &Services{
		Login:   env.login,
		Backend: func(token string) Backend { return env.backend },
		Email:   env.sender,
		Outbox: orchestrators.NewOutboxProcessor(env.outbox, map[string]orchestrators.ActionExecutor{},
			orchestrators.OutboxProcessorConfig{Now: func() time.Time { return fixedNow }}),
	}
	adminEmails = []string{"admin@example.com"}
	sessionTTL = 24 * time.Hour
	templatesDir = "templates"

	prevNow := timeNow
	timeNow = func() time.Time { return fixedNow }
	t.Cleanup(func() { timeNow = prevNow })

	env.sessions.Save(context.Background(), staffSession)
	env.sessions.Save(context.Background(), adminSession)
	return env
}

var staffSession = domainSession.Session{
	ID:        "sess-staff",
	Email:     "staff@example.com",
	Name:      "Dilini",
	Token:     "tok-staff",
	Class:     "E",
	Mode:      settings.ModeDark,
	CreatedAt: fixedNow.Add(-time.Hour),
	ExpiresAt: fixedNow.Add(23 * time.Hour),
}

var adminSession = domainSession.Session{
	ID:        "sess-admin",
	Email:     "admin@example.com",
	Name:      "Admin",
	Token:     "tok-admin",
	Class:     "E",
	Mode:      settings.ModeLight,
	Admin:     true,
	CreatedAt: fixedNow.Add(-time.Hour),
	ExpiresAt: fixedNow.Add(23 * time.Hour),
}

// authRequest returns a request with the given session injected into context.
// A body starting with "{" is sent as JSON, anything else as a form.
func authRequest(method, url string, body string, sess domainSession.Session) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		if strings.HasPrefix(body, "{") {
			req.Header.Set("Content-Type", "application/json")
		} else {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	ctx := middleware.ContextWithSession(req.Context(), sess)
	return req.WithContext(ctx)
}

// serve routes req through registerRoutes so path values are populated.
func serve(req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	registerRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func rosterRows() []report.Row {
	return []report.Row{
		{ChildID: 11, SNo: "1001", Name: "Amaya Perera", WhatsApp: "0771234567", Status: true, Weeks: [report.MaxWeeks]bool{true}},
		{ChildID: 12, SNo: "1002", Name: "Nimal Silva", WhatsApp2: "0719876543", Status: true, Paid: true},
		{ChildID: 13, SNo: "1003", Name: "Left Early", Status: false},
	}
}
