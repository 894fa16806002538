package web

import (
	"net/http"

	"tuition/internal/application/orchestrators"
	"tuition/internal/domain/message"
)

// handleMessage handles GET (compose) and POST (send) for /message.
// Action "broadcast" sends Content to every guardian of the class,
// "reminders" sends the before-payment templates to unpaid guardians.
func handleMessage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	switch r.Method {
	case http.MethodGet:
		renderTemplate(w, r, "message.html", map[string]any{"MaxLength": message.MaxLength})

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		deps := orchestrators.MessagingDeps{Backend: backendFor(sess), AuditStore: stores.AuditStore, Now: timeNow}
		actor := actorFrom(r, sess)

		var msg string
		switch r.FormValue("Action") {
		case "broadcast":
			if err := orchestrators.ExecuteBroadcast(r.Context(), actor, message.Broadcast{Content: r.FormValue("Content")}, deps); err != nil {
				fail(w, r, err, "Could not send the message")
				return
			}
			msg = "Message sent"
		case "reminders":
			res, err := orchestrators.ExecutePaymentReminders(r.Context(), actor, deps)
			if err != nil {
				fail(w, r, err, "Could not send payment reminders")
				return
			}
			msg = res
			if msg == "" {
				msg = "Payment reminders sent"
			}
		default:
			respond(w, r, http.StatusBadRequest, "unknown action")
			return
		}
		setFlash(w, msg)
		http.Redirect(w, r, "/message", http.StatusSeeOther)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
