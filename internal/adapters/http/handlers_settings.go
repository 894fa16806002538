package web

import (
	"net/http"
	"strings"

	"tuition/internal/adapters/http/middleware"
	"tuition/internal/application/orchestrators"
	"tuition/internal/application/projections"
	"tuition/internal/domain/settings"
)

// handleSettings handles GET (page) and POST (one of the settings forms) for /settings.
func handleSettings(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	switch r.Method {
	case http.MethodGet:
		input := projections.SettingsInput{Email: sess.Email, Class: sess.Class, Mode: sess.Mode, Admin: sess.Admin}
		page, err := projections.QuerySettings(r.Context(), input, projections.SettingsDeps{Backend: backendFor(sess)})
		if err != nil {
			fail(w, r, err, "Could not load settings")
			return
		}
		renderTemplate(w, r, "settings.html", map[string]any{"Settings": page})

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		deps := orchestrators.SettingsDeps{
			Backend:      backendFor(sess),
			SessionStore: stores.SessionStore,
			AuditStore:   stores.AuditStore,
			Now:          timeNow,
		}
		target := "/settings"
		var msg string

		switch r.FormValue("Action") {
		case "profile":
			current, err := backendFor(sess).GetUser(r.Context(), sess.Email)
			if err != nil {
				fail(w, r, err, "Could not load your profile")
				return
			}
			values := make(map[string]string, len(r.PostForm))
			for k := range r.PostForm {
				values[k] = r.PostForm.Get(k)
			}
			p := projections.ProfileFromForm(current, r.FormValue("Name"), values)
			if _, err := orchestrators.ExecuteUpdateProfile(r.Context(), sess, p, middleware.ClientIP(r), deps); err != nil {
				fail(w, r, err, "Could not save your profile")
				return
			}
			msg = "Profile saved"

		case "day":
			err := orchestrators.ExecuteUpdateDay(r.Context(), actorFrom(r, sess), formInt(r, "TuitionID"), formInt(r, "DayID"), deps)
			if err != nil {
				fail(w, r, err, "Could not change the class day")
				return
			}
			msg = "Class day saved"

		case "mode":
			if _, err := orchestrators.ExecuteToggleMode(r.Context(), sess, deps); err != nil {
				fail(w, r, err, "Could not change the theme")
				return
			}
			if ret := r.FormValue("Return"); isLocalPath(ret) {
				target = ret
			}

		case "user_status":
			status, ok := settings.ParseUserStatus(r.FormValue("Status"))
			if !ok {
				respond(w, r, http.StatusBadRequest, "status must be enable or disable")
				return
			}
			email := r.FormValue("Email")
			if err := orchestrators.ExecuteSetUserStatus(r.Context(), sess, email, status, middleware.ClientIP(r), deps); err != nil {
				fail(w, r, err, "Could not change the account")
				return
			}
			msg = email + " " + status.String() + "d"

		default:
			respond(w, r, http.StatusBadRequest, "unknown action")
			return
		}

		if msg != "" {
			setFlash(w, msg)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// isLocalPath accepts same-site absolute paths only, so a form cannot
// redirect off the dashboard.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "\\")
}
