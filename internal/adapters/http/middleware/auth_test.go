package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainSession "tuition/internal/domain/session"
)

type mockLoader struct {
	sessions map[string]domainSession.Session
	err      error
}

// Get returns the seeded session.
// PRE: id is non-empty
// POST: Returns ErrNotFound for unknown ids
func (m *mockLoader) Get(_ context.Context, id string, _ time.Time) (domainSession.Session, error) {
	if m.err != nil {
		return domainSession.Session{}, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return domainSession.Session{}, domainSession.ErrNotFound
	}
	return s, nil
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func withCookie(path, id string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id})
	return req
}

func TestAuth_LoadsSession(t *testing.T) {
	loader := &mockLoader{sessions: map[string]domainSession.Session{
		"abc": {ID: "abc", Email: "staff@example.com", Token: "tok", Class: "E"},
	}}
	var got domainSession.Session
	handler := Auth(loader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSessionFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), withCookie("/", "abc"))
	if got.Email != "staff@example.com" {
		t.Errorf("session = %+v", got)
	}
}

func TestAuth_UnknownCookieCleared(t *testing.T) {
	handler := Auth(&mockLoader{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); ok {
			t.Error("no session expected")
		}
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withCookie("/", "stale"))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || cookies[0].MaxAge >= 0 {
		t.Errorf("cookies = %+v", cookies)
	}
}

func TestAuth_StoreErrorPassesThrough(t *testing.T) {
	called := false
	handler := Auth(&mockLoader{err: errors.New("disk")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withCookie("/", "abc"))
	if !called {
		t.Error("handler should still run")
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Error("cookie should be kept on a store error")
	}
}

func TestRequireGuards(t *testing.T) {
	noClass := domainSession.Session{ID: "1", Email: "staff@example.com", Token: "t"}
	withClass := noClass
	withClass.Class = "E"
	admin := withClass
	admin.Admin = true

	tests := []struct {
		name     string
		guard    func(http.Handler) http.Handler
		path     string
		sess     *domainSession.Session
		want     int
		location string
	}{
		{"auth page anonymous", RequireAuth, "/classes", nil, http.StatusSeeOther, "/login"},
		{"auth api anonymous", RequireAuth, "/api/week", nil, http.StatusUnauthorized, ""},
		{"auth ok", RequireAuth, "/classes", &noClass, http.StatusOK, ""},
		{"class missing page", RequireClass, "/s1b", &noClass, http.StatusSeeOther, "/classes"},
		{"class missing api", RequireClass, "/api/week", &noClass, http.StatusPreconditionRequired, ""},
		{"class anonymous", RequireClass, "/s1b", nil, http.StatusSeeOther, "/login"},
		{"class ok", RequireClass, "/s1b", &withClass, http.StatusOK, ""},
		{"admin forbidden", RequireAdmin, "/admin/status", &withClass, http.StatusForbidden, ""},
		{"admin ok", RequireAdmin, "/admin/status", &admin, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.sess != nil {
				req = req.WithContext(ContextWithSession(req.Context(), *tt.sess))
			}
			rr := httptest.NewRecorder()
			tt.guard(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.location != "" && rr.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", rr.Header().Get("Location"), tt.location)
			}
		})
	}
}

func TestSetSessionCookie(t *testing.T) {
	expires := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, domainSession.Session{ID: "abc", ExpiresAt: expires})

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %+v", cookies)
	}
	c := cookies[0]
	if c.Value != "abc" || !c.HttpOnly || !c.Expires.Equal(expires) {
		t.Errorf("cookie = %+v", c)
	}
}
