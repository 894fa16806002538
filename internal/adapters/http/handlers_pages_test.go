package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tuition/internal/adapters/backend"
	domainAudit "tuition/internal/domain/audit"
	domainOutbox "tuition/internal/domain/outbox"
	"tuition/internal/domain/settings"
	"tuition/internal/domain/student"
)

// flashOf returns the flash message a response set, if any.
func flashOf(rec *httptest.ResponseRecorder) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookieName && c.MaxAge > 0 {
			msg, _ := url.QueryUnescape(c.Value)
			return msg
		}
	}
	return ""
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want 303. Body: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

// --- Student form ---

func TestHandleStudentForm_New(t *testing.T) {
	setup(t)
	rec := serve(authRequest(http.MethodGet, "/s1b/student?sno=120", "", staffSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200. Body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "New Grade 1 - B Spoken Student") {
		t.Error("title missing")
	}
	if !strings.Contains(body, `placeholder="20"`) {
		t.Error("suggested tuition id missing")
	}
}

func TestHandleStudentForm_Update(t *testing.T) {
	env := setup(t)
	env.backend.students[7] = student.Student{ID: 7, SNo: "1007", Name: "Sanduni Fernando", Gender: student.GenderFemale, TuitionID: 5}

	rec := serve(authRequest(http.MethodGet, "/s1b/student?id=7", "", staffSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Sanduni Fernando") {
		t.Error("student name missing")
	}

	rec = serve(authRequest(http.MethodGet, "/s1b/student?id=99", "", staffSession))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing student: got %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "student not found") {
		t.Error("backend message should be shown")
	}
}

func TestHandleStudentForm_Create(t *testing.T) {
	env := setup(t)
	form := url.Values{"SNo": {" 120 "}, "Name": {"Kasun Jayasuriya"}, "DOB": {"2014-05-02"}, "Gender": {"Male"}}
	rec := serve(authRequest(http.MethodPost, "/s1b/student", form.Encode(), staffSession))

	assertRedirect(t, rec, "/s1b")
	if got := flashOf(rec); got != "Student created" {
		t.Errorf("flash = %q", got)
	}
	st := env.backend.savedStudent
	if st.SNo != "120" || st.TuitionID != 20 || st.Gender != student.GenderMale || st.DOB.Year() != 2014 {
		t.Errorf("saved = %+v", st)
	}
}

func TestHandleStudentForm_Invalid(t *testing.T) {
	env := setup(t)
	rec := serve(authRequest(http.MethodPost, "/s1b/student", "SNo=120&Name=", staffSession))

	assertRedirect(t, rec, "/s1b/student")
	if got := flashOf(rec); got != student.ErrEmptyName.Error() {
		t.Errorf("flash = %q", got)
	}
	if env.backend.called("CreateStudent") {
		t.Error("invalid student must not be sent")
	}
}

// --- Message ---

func TestHandleMessage_Page(t *testing.T) {
	setup(t)
	rec := serve(authRequest(http.MethodGet, "/message", "", staffSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `maxlength="4096"`) {
		t.Error("length limit missing")
	}
}

func TestHandleMessage_Broadcast(t *testing.T) {
	env := setup(t)
	rec := serve(authRequest(http.MethodPost, "/message", "Action=broadcast&Content=Classes+resume+Monday", staffSession))

	assertRedirect(t, rec, "/message")
	if env.backend.broadcast.Content != "Classes resume Monday" {
		t.Errorf("broadcast = %+v", env.backend.broadcast)
	}
	if flashOf(rec) != "Message sent" {
		t.Errorf("flash = %q", flashOf(rec))
	}
}

func TestHandleMessage_Reminders(t *testing.T) {
	env := setup(t)
	rec := serve(authRequest(http.MethodPost, "/message", "Action=reminders", staffSession))

	assertRedirect(t, rec, "/message")
	if !env.backend.called("PaymentReminders") {
		t.Error("reminders not requested")
	}
	if flashOf(rec) != "3 reminders sent" {
		t.Errorf("flash = %q", flashOf(rec))
	}
}

func TestHandleMessage_Rejected(t *testing.T) {
	env := setup(t)
	for _, body := range []string{"Action=broadcast&Content=+", "Action=shout"} {
		rec := serve(authRequest(http.MethodPost, "/message", body, staffSession))
		assertRedirect(t, rec, "/message")
		if flashOf(rec) == "" {
			t.Errorf("%s: no flash", body)
		}
	}
	if env.backend.called("Broadcast") {
		t.Error("empty broadcast must not be sent")
	}
}

// --- Settings ---

func TestHandleSettings_Page(t *testing.T) {
	env := setup(t)
	env.backend.profile = settings.Profile{Name: "Dilini", Email: staffSession.Email, BeforePaymentWeek3: "Fees are due"}
	env.backend.grades = []backend.GradeOption{{ID: 5, Grade: "Grade 1b Spoken", DayID: 2}}

	rec := serve(authRequest(http.MethodGet, "/settings", "", staffSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200. Body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Fees are due") || !strings.Contains(body, "Grade 1b Spoken") {
		t.Error("profile or class days missing")
	}
	if env.backend.called("ListUsers") {
		t.Error("account list is for admins only")
	}

	env.backend.users = []backend.UserSummary{{Email: staffSession.Email, Name: "Dilini", Status: settings.UserEnabled}}
	rec = serve(authRequest(http.MethodGet, "/settings", "", adminSession))
	if !strings.Contains(rec.Body.String(), "Accounts") {
		t.Error("admin should see the account list")
	}
}

func TestHandleSettings_Profile(t *testing.T) {
	env := setup(t)
	env.backend.profile = settings.Profile{Name: "Dilini", Email: staffSession.Email, AfterPayment: "Thank you"}

	form := url.Values{"Action": {"profile"}, "Name": {"Dilini Perera"}, "before_payment_week3": {"Fees are due"}}
	rec := serve(authRequest(http.MethodPost, "/settings", form.Encode(), staffSession))

	assertRedirect(t, rec, "/settings")
	p := env.backend.savedProfile
	if p.Name != "Dilini Perera" || p.BeforePaymentWeek3 != "Fees are due" || p.AfterPayment != "Thank you" {
		t.Errorf("saved profile = %+v", p)
	}
	if got := env.sessions.sessions[staffSession.ID].Name; got != "Dilini Perera" {
		t.Errorf("session name = %q", got)
	}
}

func TestHandleSettings_Day(t *testing.T) {
	env := setup(t)
	rec := serve(authRequest(http.MethodPost, "/settings", "Action=day&TuitionID=5&DayID=3", staffSession))
	assertRedirect(t, rec, "/settings")
	if !env.backend.called("UpdateDay") {
		t.Error("day not saved")
	}

	env.backend.calls = nil
	rec = serve(authRequest(http.MethodPost, "/settings", "Action=day&TuitionID=5&DayID=9", staffSession))
	assertRedirect(t, rec, "/settings")
	if flashOf(rec) != settings.ErrInvalidDay.Error() {
		t.Errorf("flash = %q", flashOf(rec))
	}
	if env.backend.called("UpdateDay") {
		t.Error("invalid day must not be sent")
	}
}

func TestHandleSettings_Mode(t *testing.T) {
	tests := []struct {
		name    string
		ret     string
		wantLoc string
	}{
		{"local return", "/s1b", "/s1b"},
		{"protocol relative", "//evil.example", "/settings"},
		{"absolute url", "https://evil.example/", "/settings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t)
			form := url.Values{"Action": {"mode"}, "Return": {tt.ret}}
			rec := serve(authRequest(http.MethodPost, "/settings", form.Encode(), staffSession))

			assertRedirect(t, rec, tt.wantLoc)
			if env.backend.mode != settings.ModeLight {
				t.Errorf("backend mode = %q, want L", env.backend.mode)
			}
			if got := env.sessions.sessions[staffSession.ID].Mode; got != settings.ModeLight {
				t.Errorf("session mode = %q, want L", got)
			}
		})
	}
}

func TestHandleSettings_UserStatus(t *testing.T) {
	t.Run("staff cannot change accounts", func(t *testing.T) {
		env := setup(t)
		rec := serve(authRequest(http.MethodPost, "/settings", "Action=user_status&Email=other@example.com&Status=disable", staffSession))
		assertRedirect(t, rec, "/settings")
		if env.backend.called("SetUserStatus") {
			t.Error("staff must not reach the backend")
		}
	})

	t.Run("admin disables staff", func(t *testing.T) {
		env := setup(t)
		rec := serve(authRequest(http.MethodPost, "/settings", "Action=user_status&Email=staff@example.com&Status=disable", adminSession))
		assertRedirect(t, rec, "/settings")
		if flashOf(rec) != "staff@example.com disabled" {
			t.Errorf("flash = %q", flashOf(rec))
		}
		if _, ok := env.sessions.sessions[staffSession.ID]; ok {
			t.Error("disabled user should be signed out")
		}
	})

	t.Run("admin cannot disable self", func(t *testing.T) {
		env := setup(t)
		rec := serve(authRequest(http.MethodPost, "/settings", "Action=user_status&Email=admin@example.com&Status=disable", adminSession))
		assertRedirect(t, rec, "/settings")
		if env.backend.called("SetUserStatus") {
			t.Error("self-disable must not reach the backend")
		}
	})

	t.Run("bad status", func(t *testing.T) {
		env := setup(t)
		rec := serve(authRequest(http.MethodPost, "/settings", "Action=user_status&Email=staff@example.com&Status=maybe", adminSession))
		assertRedirect(t, rec, "/settings")
		if env.backend.called("SetUserStatus") {
			t.Error("unknown status must not reach the backend")
		}
	})
}

// --- History ---

func historyEnv(t *testing.T) *testEnv {
	env := setup(t)
	env.backend.grades = []backend.GradeOption{{ID: 5, Grade: "Grade 1b Spoken"}}
	env.backend.history = backend.History{DayHeaders: []string{"Feb 3", "Feb 10", "Feb 17", "Feb 24"}, Rows: rosterRows()}
	return env
}

func TestHandleHistory(t *testing.T) {
	historyEnv(t)

	rec := serve(authRequest(http.MethodGet, "/history", "", staffSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("pickers: got %d, want 200. Body: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "Email report") {
		t.Error("no sheet without a tuition")
	}

	rec = serve(authRequest(http.MethodGet, "/history?tuition_id=5&year=2026&month=2", "", staffSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("sheet: got %d, want 200. Body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Grade 1b Spoken February - 2026", "Amaya Perera", "export.pdf?tuition_id=5&amp;year=2026&amp;month=2", `href="/s1b"`} {
		if !strings.Contains(body, want) {
			t.Errorf("sheet missing %q", want)
		}
	}
}

func TestHandleHistory_InvalidMonth(t *testing.T) {
	historyEnv(t)
	rec := serve(authRequest(http.MethodGet, "/history?tuition_id=5&year=2026&month=13", "", staffSession))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rec.Code)
	}
}

func TestHandleHistoryExport(t *testing.T) {
	tests := []struct {
		path      string
		magic     []byte
		extension string
	}{
		{"/history/export.pdf", []byte("%PDF"), ".pdf"},
		{"/history/export.xlsx", []byte("PK"), ".xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			historyEnv(t)
			rec := serve(authRequest(http.MethodGet, tt.path+"?tuition_id=5&year=2026&month=2", "", staffSession))
			if rec.Code != http.StatusOK {
				t.Fatalf("got %d, want 200. Body: %s", rec.Code, rec.Body.String())
			}
			if !bytes.HasPrefix(rec.Body.Bytes(), tt.magic) {
				t.Errorf("body does not start with %q", tt.magic)
			}
			want := `attachment; filename="Grade 1b Spoken_Attendance_2_2026` + tt.extension + `"`
			if got := rec.Header().Get("Content-Disposition"); got != want {
				t.Errorf("Content-Disposition = %q, want %q", got, want)
			}
		})
	}
}

func TestHandleHistoryEmail(t *testing.T) {
	env := historyEnv(t)
	form := "tuition_id=5&year=2026&month=2&to=" + url.QueryEscape("office@example.com; head@example.com")
	rec := serve(authRequest(http.MethodPost, "/history/email", form, staffSession))

	assertRedirect(t, rec, "/history?tuition_id=5&year=2026&month=2")
	if len(env.sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(env.sender.sent))
	}
	req := env.sender.sent[0]
	if len(req.To) != 2 || len(req.Attachments) != 2 {
		t.Errorf("request = to %v, %d attachments", req.To, len(req.Attachments))
	}
	if !strings.Contains(req.Subject, "Grade 1b Spoken February - 2026") {
		t.Errorf("subject = %q", req.Subject)
	}
}

func TestHandleHistoryEmail_Queued(t *testing.T) {
	env := historyEnv(t)
	env.sender.err = errors.New("provider unavailable")
	rec := serve(authRequest(http.MethodPost, "/history/email", "tuition_id=5&year=2026&month=2&to=office@example.com", staffSession))

	assertRedirect(t, rec, "/history?tuition_id=5&year=2026&month=2")
	if !strings.Contains(flashOf(rec), "sent shortly") {
		t.Errorf("flash = %q", flashOf(rec))
	}
	pending, _ := env.outbox.ListPending(context.Background(), 10)
	if len(pending) != 1 || pending[0].ActionType != domainOutbox.ActionReportEmail {
		t.Errorf("pending = %+v", pending)
	}
}

func TestHandleHistoryEmail_NoRecipients(t *testing.T) {
	env := historyEnv(t)
	rec := serve(authRequest(http.MethodPost, "/history/email", "tuition_id=5&year=2026&month=2&to=nobody", staffSession))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("got %d, want 303", rec.Code)
	}
	if len(env.sender.sent) != 0 {
		t.Error("nothing should be sent")
	}
}

// --- Admin ---

func seedOutbox(env *testEnv, id, status string) {
	env.outbox.entries[id] = domainOutbox.Entry{
		ID:          id,
		ActionType:  domainOutbox.ActionWeekReport,
		Payload:     `{"child_id":11,"tuition_id":5,"week":2,"value":true}`,
		Status:      status,
		Attempts:    5,
		MaxAttempts: 5,
		CreatedAt:   fixedNow,
		ActorEmail:  staffSession.Email,
	}
}

func TestHandleAdminStatus(t *testing.T) {
	env := setup(t)
	seedOutbox(env, "ob-1", domainOutbox.StatusFailed)
	env.audit.events = nil
	serve(authRequest(http.MethodPost, "/api/week", `{"child_id":11,"tuition_id":5,"week":2,"value":true}`, staffSession))

	rec := serve(authRequest(http.MethodGet, "/admin/status?window=15m&category=attendance", "", adminSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200. Body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"/admin/outbox/ob-1/retry", "staff@example.com", "week_report"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHandleAdminStatus_AuditPages(t *testing.T) {
	env := setup(t)
	env.audit.events = nil
	for i := 0; i < 25; i++ {
		env.audit.events = append(env.audit.events, domainAudit.Event{
			ID: fmt.Sprintf("ev-%02d", i), Category: domainAudit.CategoryPayment, ActorEmail: "staff@example.com",
			Description: fmt.Sprintf("paid toggle %02d", i),
		})
	}

	rec := serve(authRequest(http.MethodGet, "/admin/status?category=payment&page=2", "", adminSession))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "21-25 of 25") || !strings.Contains(body, "paid toggle 24") {
		t.Errorf("page 2 should hold the last five events")
	}
	if strings.Contains(body, "paid toggle 19") {
		t.Error("page 2 should not repeat page 1")
	}
	if !strings.Contains(body, `href="/admin/status?category=payment&amp;page=1"`) {
		t.Error("pager should link back to page 1 keeping the filter")
	}
}

func TestHandleAdminOutbox_Abandon(t *testing.T) {
	env := setup(t)
	seedOutbox(env, "ob-1", domainOutbox.StatusFailed)

	rec := serve(authRequest(http.MethodPost, "/admin/outbox/ob-1/abandon", "", adminSession))
	assertRedirect(t, rec, "/admin/status")
	if got := env.outbox.entries["ob-1"].Status; got != domainOutbox.StatusAbandoned {
		t.Errorf("status = %q, want abandoned", got)
	}
}

func TestHandleAdminOutbox_Errors(t *testing.T) {
	env := setup(t)

	rec := serve(authRequest(http.MethodPost, "/admin/outbox/missing/retry", "", adminSession))
	assertRedirect(t, rec, "/admin/status")
	if !strings.Contains(flashOf(rec), "get outbox entry") {
		t.Errorf("flash = %q", flashOf(rec))
	}

	seedOutbox(env, "ob-2", domainOutbox.StatusFailed)
	rec = serve(authRequest(http.MethodPost, "/admin/outbox/ob-2/explode", "", adminSession))
	assertRedirect(t, rec, "/admin/outbox/ob-2/explode")
	if env.outbox.entries["ob-2"].Status != domainOutbox.StatusFailed {
		t.Error("unknown action must not change the entry")
	}

	services.Outbox = nil
	rec = serve(authRequest(http.MethodPost, "/admin/outbox/ob-2/retry", "", adminSession))
	if flashOf(rec) != "outbox processing is not running" {
		t.Errorf("flash = %q", flashOf(rec))
	}
}
