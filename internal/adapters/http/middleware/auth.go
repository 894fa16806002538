package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainSession "tuition/internal/domain/session"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionCookieName holds the random session id, never the backend token.
const SessionCookieName = "tuition_session"

// SecureCookies marks session cookies Secure. NewMux sets it in production.
var SecureCookies = false

// SessionLoader loads a live session by cookie value.
type SessionLoader interface {
	Get(ctx context.Context, id string, now time.Time) (domainSession.Session, error)
}

// Auth returns middleware that loads the session named by the cookie into the
// request context. It does NOT block unauthenticated requests: use
// RequireAuth, RequireClass or RequireAdmin for that. A cookie naming an
// expired or unknown session is cleared.
func Auth(sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err == nil && cookie.Value != "" {
				sess, err := sessions.Get(r.Context(), cookie.Value, time.Now())
				switch {
				case err == nil:
					r = r.WithContext(ContextWithSession(r.Context(), sess))
				case errors.Is(err, domainSession.ErrNotFound), errors.Is(err, domainSession.ErrExpired):
					ClearSessionCookie(w)
				default:
					slog.Error("session_load_failed", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth blocks unauthenticated requests: pages redirect to /login, the
// JSON API answers 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			deny(w, r, "/login", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireClass blocks signed-in users who have not picked a class yet.
func RequireClass(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := GetSessionFromContext(r.Context())
		if sess.RequireClass() != nil {
			deny(w, r, "/classes", http.StatusPreconditionRequired)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireAdmin blocks users not listed as admins.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := GetSessionFromContext(r.Context())
		if !sess.Admin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func deny(w http.ResponseWriter, r *http.Request, redirect string, apiStatus int) {
	if IsAPIRequest(r) {
		http.Error(w, http.StatusText(apiStatus), apiStatus)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// IsAPIRequest reports whether r targets the JSON API.
func IsAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (domainSession.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(domainSession.Session)
	return sess, ok
}

// ContextWithSession returns a context carrying sess.
func ContextWithSession(ctx context.Context, sess domainSession.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SetSessionCookie sets the session cookie to expire with the session.
func SetSessionCookie(w http.ResponseWriter, sess domainSession.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		Expires:  sess.ExpiresAt,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
