package web

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"tuition/internal/application/listutil"
	"tuition/internal/application/projections"
	domainAudit "tuition/internal/domain/audit"
)

// handleAdminStatus renders GET /admin/status: request and backend timings,
// the outbox queue and the audit trail.
// PRE: User must be an administrator
// POST: Renders admin_status.html, ?window= (e.g. 15m) narrows the timings,
// ?category= and ?actor= filter the audit list, ?page= pages it
func handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	input := projections.AdminStatusInput{
		Category:   domainAudit.Category(q.Get("category")),
		ActorEmail: q.Get("actor"),
		Limit:      queryInt(r, "limit"),
		Page:       listutil.ParsePageParams(q),
		Now:        timeNow(),
	}
	if d, err := time.ParseDuration(q.Get("window")); err == nil {
		input.Window = d
	}
	deps := projections.AdminStatusDeps{
		Collector:   services.Collector,
		OutboxStore: stores.OutboxStore,
		AuditStore:  stores.AuditStore,
	}
	st, err := projections.QueryAdminStatus(r.Context(), input, deps)
	if err != nil {
		internalError(w, err)
		return
	}
	var pages []pageLink
	if st.EventPage.ShowPagination() {
		for _, n := range st.EventPage.PageNumbers() {
			pages = append(pages, pageLink{N: n, Href: template.URL(listutil.Link(q, n)), Current: n == st.EventPage.Page})
		}
	}
	renderTemplate(w, r, "admin_status.html", map[string]any{
		"Status":     st,
		"Filter":     input,
		"Categories": auditCategories,
		"Pages":      pages,
	})
}

// pageLink is one pagination button. Href is built by url.Values.Encode.
type pageLink struct {
	N       int
	Href    template.URL
	Current bool
}

var auditCategories = []domainAudit.Category{
	domainAudit.CategoryAccount,
	domainAudit.CategoryAttendance,
	domainAudit.CategoryPayment,
	domainAudit.CategoryStudent,
	domainAudit.CategoryMessaging,
	domainAudit.CategoryReport,
	domainAudit.CategorySettings,
}

// handleAdminOutbox handles POST /admin/outbox/{id}/{action} where action is
// retry (replay now, one attempt past the limit) or abandon.
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if services.Outbox == nil {
		respond(w, r, http.StatusServiceUnavailable, "outbox processing is not running")
		return
	}
	id := r.PathValue("id")
	sess := currentSession(r)

	var err error
	var msg string
	switch r.PathValue("action") {
	case "retry":
		err = services.Outbox.ProcessSingle(r.Context(), id)
		msg = "Retry triggered"
	case "abandon":
		err = services.Outbox.AbandonEntry(r.Context(), id)
		msg = "Entry abandoned"
	default:
		respond(w, r, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		slog.Warn("outbox_admin_action_failed", "entry_id", id, "action", r.PathValue("action"), "admin", sess.Email, "error", err)
		setFlash(w, err.Error())
	} else {
		slog.Info("outbox_admin_action", "entry_id", id, "action", r.PathValue("action"), "admin", sess.Email)
		setFlash(w, msg)
	}
	http.Redirect(w, r, "/admin/status", http.StatusSeeOther)
}
