package web

import (
	"errors"
	"net/http"
	"strings"

	"tuition/internal/application/orchestrators"
	"tuition/internal/application/projections"
	"tuition/internal/domain/message"
	"tuition/internal/domain/routecodec"
)

// handleGradePage handles GET /{segment}: the attendance and payment sheet.
func handleGradePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := currentSession(r)
	input := projections.GradePageInput{
		Segment: r.PathValue("segment"),
		Class:   sess.Class,
		Search:  r.URL.Query().Get("q"),
		Now:     timeNow(),
	}
	page, err := projections.QueryGradePage(r.Context(), input, projections.GradePageDeps{Backend: backendFor(sess)})
	if err != nil {
		if isRouteError(err) {
			respond(w, r, http.StatusNotFound, routecodec.Decode(input.Segment)+" not found")
			return
		}
		fail(w, r, err, "Could not load students")
		return
	}
	renderTemplate(w, r, "grade.html", map[string]any{"Page": page})
}

func isRouteError(err error) bool {
	return errors.Is(err, routecodec.ErrUnknownCategory) ||
		errors.Is(err, routecodec.ErrInvalidSegment) ||
		errors.Is(err, routecodec.ErrInvalidLabel) ||
		errors.Is(err, routecodec.ErrGradeOutOfRange)
}

func reportWriteDeps(r *http.Request) orchestrators.ReportWriteDeps {
	return orchestrators.ReportWriteDeps{
		Backend:     backendFor(currentSession(r)),
		OutboxStore: stores.OutboxStore,
		AuditStore:  stores.AuditStore,
		Now:         timeNow,
		GenerateID:  generateID,
	}
}

type weekRequest struct {
	ChildID   int  `json:"child_id"`
	TuitionID int  `json:"tuition_id"`
	Week      int  `json:"week"`
	Value     bool `json:"value"`
}

// handleAPIWeek handles POST /api/week: one attendance checkbox.
func handleAPIWeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req weekRequest
	if err := strictDecode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess := currentSession(r)
	res, err := orchestrators.ExecuteToggleWeek(r.Context(), actorFrom(r, sess), orchestrators.ToggleWeekInput{
		ChildID:   req.ChildID,
		TuitionID: req.TuitionID,
		Week:      req.Week,
		Value:     req.Value,
	}, reportWriteDeps(r))
	if err != nil {
		fail(w, r, err, "Could not update attendance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"queued": res.Queued})
}

type paidRequest struct {
	ChildID   int  `json:"child_id"`
	TuitionID int  `json:"tuition_id"`
	Paid      bool `json:"paid"`
}

// handleAPIPaid handles POST /api/paid: the payment checkbox.
func handleAPIPaid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req paidRequest
	if err := strictDecode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess := currentSession(r)
	res, err := orchestrators.ExecuteTogglePaid(r.Context(), actorFrom(r, sess), orchestrators.TogglePaidInput{
		ChildID:   req.ChildID,
		TuitionID: req.TuitionID,
		Paid:      req.Paid,
	}, reportWriteDeps(r))
	if err != nil {
		fail(w, r, err, "Could not update payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"queued": res.Queued})
}

type removeRequest struct {
	ChildID   int `json:"child_id"`
	TuitionID int `json:"tuition_id"`
}

// handleAPIRemove handles POST /api/remove: takes a student off a tuition.
func handleAPIRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req removeRequest
	if err := strictDecode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess := currentSession(r)
	if err := orchestrators.ExecuteRemoveStudent(r.Context(), actorFrom(r, sess), req.ChildID, req.TuitionID, reportWriteDeps(r)); err != nil {
		fail(w, r, err, "Could not remove the student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	TuitionID int    `json:"tuition_id"`
	ChildIDs  []int  `json:"child_ids"`
	Content   string `json:"content"`
}

// handleAPIMessage handles POST /api/message: WhatsApp to selected students.
func handleAPIMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req messageRequest
	if err := strictDecode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess := currentSession(r)
	m := message.TuitionMessage{Content: req.Content, TuitionID: req.TuitionID, ChildIDs: req.ChildIDs}
	deps := orchestrators.MessagingDeps{Backend: backendFor(sess), AuditStore: stores.AuditStore, Now: timeNow}
	if err := orchestrators.ExecuteSendTuitionMessage(r.Context(), actorFrom(r, sess), m, deps); err != nil {
		fail(w, r, err, "Could not send the message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleAPIRoute handles GET /api/route: ?segment= decodes a path segment,
// ?label=&category= encodes a grade label.
func handleAPIRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	if seg := strings.TrimSpace(q.Get("segment")); seg != "" {
		writeJSON(w, http.StatusOK, map[string]string{"segment": seg, "title": routecodec.Decode(seg)})
		return
	}
	seg, err := routecodec.Encode(q.Get("label"), q.Get("category"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"segment": seg, "title": routecodec.Decode(seg)})
}
