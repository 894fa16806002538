package web

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"tuition/internal/adapters/export"
	"tuition/internal/application/orchestrators"
	"tuition/internal/application/projections"
	"tuition/internal/domain/outbox"
	domainSession "tuition/internal/domain/session"
)

// historyInput reads ?tuition_id=&year=&month=&title= (or the same form fields).
// A missing title is looked up from the grade picker of the class.
func historyInput(ctx context.Context, r *http.Request, sess domainSession.Session) (projections.HistoryInput, error) {
	in := projections.HistoryInput{
		TuitionID: formInt(r, "tuition_id"),
		Year:      formInt(r, "year"),
		Month:     formInt(r, "month"),
		Title:     strings.TrimSpace(r.FormValue("title")),
	}
	if in.Title != "" || in.TuitionID <= 0 {
		return in, nil
	}
	grades, err := backendFor(sess).Grades(ctx, sess.Class)
	if err != nil {
		return in, err
	}
	for _, g := range grades {
		if g.ID == in.TuitionID {
			in.Title = g.Grade
			break
		}
	}
	return in, nil
}

// handleHistory handles GET /history: the pickers, plus the month sheet once
// a tuition is chosen.
func handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := currentSession(r)
	deps := projections.HistoryDeps{Backend: backendFor(sess)}
	opts, err := projections.QueryHistoryOptions(r.Context(), sess.Class, deps)
	if err != nil {
		fail(w, r, err, "Could not load history")
		return
	}
	data := map[string]any{"Options": opts}

	in, err := historyInput(r.Context(), r, sess)
	if err != nil {
		fail(w, r, err, "Could not load history")
		return
	}
	data["Input"] = in
	if in.TuitionID > 0 {
		sheet, err := projections.QueryHistorySheet(r.Context(), in, deps)
		if err != nil {
			fail(w, r, err, "Could not load history")
			return
		}
		data["Sheet"] = sheet
		// Built from integers, so safe as a URL query.
		data["Query"] = template.URL(historyQuery(in))
	}
	renderTemplate(w, r, "history.html", data)
}

func historyQuery(in projections.HistoryInput) string {
	return "tuition_id=" + strconv.Itoa(in.TuitionID) +
		"&year=" + strconv.Itoa(in.Year) +
		"&month=" + strconv.Itoa(in.Month)
}

// handleHistoryExport handles GET /history/export.{pdf,xlsx}
func handleHistoryExport(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sess := currentSession(r)
		in, err := historyInput(r.Context(), r, sess)
		if err != nil {
			fail(w, r, err, "Could not export history")
			return
		}
		sheet, err := projections.QueryHistorySheet(r.Context(), in, projections.HistoryDeps{Backend: backendFor(sess)})
		if err != nil {
			fail(w, r, err, "Could not export history")
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="`+sheet.Filename(string(format))+`"`)
		write := export.WriteAttendancePDF
		if format == export.FormatXLSX {
			write = export.WriteAttendanceXLSX
		}
		if err := write(w, sheet.Sheet); err != nil {
			// Headers are gone by now; the client sees a truncated file.
			internalError(w, err)
			return
		}
	}
}

// handleHistoryEmail handles POST /history/email: mails the month as PDF and XLSX.
func handleHistoryEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	sess := currentSession(r)
	in, err := historyInput(r.Context(), r, sess)
	if err != nil {
		fail(w, r, err, "Could not email the report")
		return
	}
	input := outbox.ReportEmail{
		To:        strings.FieldsFunc(r.FormValue("to"), func(c rune) bool { return c == ',' || c == ';' || c == ' ' }),
		TuitionID: in.TuitionID,
		Title:     in.Title,
		Year:      in.Year,
		Month:     in.Month,
	}
	deps := orchestrators.ReportEmailDeps{
		Backend:     backendFor(sess),
		Sender:      services.Email,
		OutboxStore: stores.OutboxStore,
		AuditStore:  stores.AuditStore,
		Now:         timeNow,
		GenerateID:  generateID,
	}
	res, err := orchestrators.ExecuteEmailReport(r.Context(), actorFrom(r, sess), input, deps)
	if err != nil {
		fail(w, r, err, "Could not email the report")
		return
	}
	if res.Queued {
		setFlash(w, "Email provider unavailable, the report will be sent shortly")
	} else {
		setFlash(w, "Report emailed to "+strings.Join(input.To, ", "))
	}
	http.Redirect(w, r, "/history?"+historyQuery(in), http.StatusSeeOther)
}
