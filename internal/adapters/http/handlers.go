package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"tuition/internal/adapters/backend"
	"tuition/internal/adapters/http/middleware"
	"tuition/internal/application/orchestrators"
	"tuition/internal/application/projections"
	"tuition/internal/domain/message"
	"tuition/internal/domain/report"
	"tuition/internal/domain/routecodec"
	domainSession "tuition/internal/domain/session"
	"tuition/internal/domain/settings"
	"tuition/internal/domain/student"
	"tuition/internal/domain/tuition"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer renders message templates. Raw HTML in the input is escaped
// (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validationErrors answer 400 with their own text.
var validationErrors = []error{
	report.ErrInvalidWeek, report.ErrWeekLocked, report.ErrEmptyChildID, report.ErrEmptyTuitionID,
	message.ErrEmptyContent, message.ErrContentTooLong, message.ErrEmptyTuitionID, message.ErrNoRecipients, message.ErrInvalidChildID,
	student.ErrEmptySNo, student.ErrSNoTooLong, student.ErrEmptyName, student.ErrNameTooLong, student.ErrInvalidGender,
	settings.ErrEmptyName, settings.ErrEmptyEmail, settings.ErrInvalidEmail, settings.ErrInvalidMode, settings.ErrInvalidDay, settings.ErrInvalidTemplate,
	tuition.ErrUnknownClass, tuition.ErrInvalidStudentNumber, tuition.ErrStudentNumberOutOfRange,
	routecodec.ErrUnknownCategory, routecodec.ErrInvalidLabel, routecodec.ErrInvalidSegment, routecodec.ErrGradeOutOfRange,
	orchestrators.ErrInvalidCredentials, orchestrators.ErrSelfDisable, orchestrators.ErrNoReportRecipients,
	projections.ErrInvalidMonth,
}

func isValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// fail answers a failed action. Validation and backend errors reach the user:
// the JSON API gets {"error": ...}, a form post is redirected back with a
// flash message, a page load renders the error page. A backend 401 means the
// stored token is dead, so the session is dropped and the user signs in again.
func fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		dropSession(w, r)
		if middleware.IsAPIRequest(r) {
			writeJSONError(w, http.StatusUnauthorized, "session expired, please sign in again")
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	case errors.Is(err, orchestrators.ErrForbidden):
		respond(w, r, http.StatusForbidden, err.Error())
	case isValidation(err):
		respond(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr), errors.Is(err, backend.ErrUnavailable):
		slog.Warn("backend_call_failed", "path", r.URL.Path, "error", err)
		status := http.StatusBadRequest
		if backend.IsTransient(err) {
			status = http.StatusBadGateway
		}
		respond(w, r, status, backend.UserMessage(err, fallback))
	default:
		if middleware.IsAPIRequest(r) {
			slog.Error("internal_error", "error", err.Error())
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		internalError(w, err)
	}
}

func respond(w http.ResponseWriter, r *http.Request, status int, msg string) {
	switch {
	case middleware.IsAPIRequest(r):
		writeJSONError(w, status, msg)
	case r.Method == http.MethodPost:
		setFlash(w, msg)
		http.Redirect(w, r, r.URL.RequestURI(), http.StatusSeeOther)
	default:
		renderStatus(w, r, status, "error.html", map[string]any{"Status": status, "Message": msg})
	}
}

func dropSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		if err := stores.SessionStore.Delete(r.Context(), sess.ID); err != nil {
			slog.Error("session_delete_failed", "error", err)
		}
		slog.Info("auth_event", "event", "backend_token_rejected", "email", sess.Email)
	}
	middleware.ClearSessionCookie(w)
}

const flashCookieName = "tuition_flash"

// setFlash stores a one-shot message shown by the next rendered page.
func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// popFlash reads and clears the flash message.
func popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

func actorFrom(r *http.Request, sess domainSession.Session) orchestrators.Actor {
	return orchestrators.Actor{Email: sess.Email, IP: middleware.ClientIP(r)}
}

// currentSession returns the session the auth guards put in the context.
func currentSession(r *http.Request) domainSession.Session {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess
}

func backendFor(sess domainSession.Session) Backend {
	return services.Backend(sess.Token)
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// renderTemplate renders templatesDir/layout.html around the named page.
// Pages of a signed-in user with a class get the sidebar unless data has "Nav".
func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data map[string]any) {
	renderStatus(w, r, http.StatusOK, templateName, data)
}

func renderStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	sess, signedIn := middleware.GetSessionFromContext(r.Context())
	if _, ok := data["Nav"]; !ok && signedIn && sess.Class != "" && services != nil && services.Backend != nil {
		nav, err := projections.QueryNavigation(r.Context(), sess.Class, projections.NavigationDeps{Backend: backendFor(sess)})
		if err != nil {
			slog.Warn("navigation_unavailable", "class", sess.Class, "error", err)
		}
		data["Nav"] = nav
	}
	flash := popFlash(w, r)

	funcMap := template.FuncMap{
		"csrfField":      func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":      func() string { return csrf.Token(r) },
		"isLoggedIn":     func() bool { return signedIn },
		"currentEmail":   func() string { return sess.Email },
		"currentName":    func() string { return sess.Name },
		"isAdmin":        func() bool { return sess.Admin },
		"className":      func() string { return sess.ClassName() },
		"theme":          func() string { return sess.Mode.Theme() },
		"flash":          func() string { return flash },
		"renderMarkdown": renderMarkdown,
		"displayLabel":   routecodec.DisplayLabel,
		"decodeSegment":  routecodec.Decode,
		"weeks":          func() []int { return []int{1, 2, 3, 4, 5} },
		"add":            func(a, b int) int { return a + b },
		"dict":           dict,
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	pagePath := filepath.Join(templatesDir, templateName)
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// dict builds a map from alternating keys and values for sub-templates.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.FormValue(key))
	return n
}

// handleLogin handles GET (form) and POST (sign in) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", nil)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.LoginInput{
			Email:    r.FormValue("Email"),
			Password: r.FormValue("Password"),
			IP:       middleware.ClientIP(r),
		}
		deps := orchestrators.LoginDeps{
			Backend:      services.Login,
			Modes:        func(token string) orchestrators.ModeReader { return services.Backend(token) },
			SessionStore: stores.SessionStore,
			AuditStore:   stores.AuditStore,
			AdminEmails:  adminEmails,
			TTL:          sessionTTL,
			Now:          timeNow,
		}

		sess, err := orchestrators.ExecuteLogin(r.Context(), input, deps)
		if err != nil {
			var apiErr *backend.APIError
			msg := orchestrators.ErrInvalidCredentials.Error()
			if errors.As(err, &apiErr) || errors.Is(err, backend.ErrUnavailable) {
				msg = backend.UserMessage(err, "Sign in failed, please try again")
			} else if !errors.Is(err, orchestrators.ErrInvalidCredentials) {
				internalError(w, err)
				return
			}
			renderStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{"Error": msg, "Email": input.Email})
			return
		}

		middleware.SetSessionCookie(w, sess)
		http.Redirect(w, r, "/classes", http.StatusSeeOther)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		deps := orchestrators.LogoutDeps{SessionStore: stores.SessionStore, AuditStore: stores.AuditStore, Now: timeNow}
		if err := orchestrators.ExecuteLogout(r.Context(), sess.ID, actorFrom(r, sess), deps); err != nil {
			internalError(w, err)
			return
		}
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleClasses handles GET (picker) and POST (select) for /classes
func handleClasses(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	switch r.Method {
	case http.MethodGet:
		classes := make([]map[string]string, 0, 3)
		for _, code := range tuition.Classes() {
			name, _ := tuition.ClassName(code)
			classes = append(classes, map[string]string{"Code": code, "Name": name})
		}
		renderTemplate(w, r, "classes.html", map[string]any{"Classes": classes, "Selected": sess.Class})

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		_, err := orchestrators.ExecuteSelectClass(r.Context(), sess, r.FormValue("Class"), orchestrators.SelectClassDeps{SessionStore: stores.SessionStore})
		if err != nil {
			fail(w, r, err, "Could not select the class")
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleDashboard handles GET / for the selected class
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := currentSession(r)
	d, err := projections.QueryDashboard(r.Context(), sess.Class, projections.DashboardDeps{Backend: backendFor(sess)})
	if err != nil {
		fail(w, r, err, "Could not load the dashboard")
		return
	}
	renderTemplate(w, r, "dashboard.html", map[string]any{"Dashboard": d})
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
