package web

import (
	"net/http"
	"strings"
	"time"

	"tuition/internal/application/orchestrators"
	"tuition/internal/application/projections"
	"tuition/internal/domain/student"
)

const studentSearchLimit = 20

// handleStudentForm handles GET (form) and POST (save) for /{segment}/student
// and /student. ?id= opens an existing student, ?sno= prefills a new one.
func handleStudentForm(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	segment := r.PathValue("segment")

	switch r.Method {
	case http.MethodGet:
		input := projections.StudentFormInput{
			Segment: segment,
			ChildID: queryInt(r, "id"),
			SNo:     r.URL.Query().Get("sno"),
		}
		form, err := projections.QueryStudentForm(r.Context(), input, projections.StudentFormDeps{Backend: backendFor(sess)})
		if err != nil {
			fail(w, r, err, "Could not load the student")
			return
		}
		renderTemplate(w, r, "student.html", map[string]any{"Form": form})

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		st := studentFromForm(r)
		deps := orchestrators.StudentDeps{Backend: backendFor(sess), AuditStore: stores.AuditStore, Now: timeNow}
		msg, err := orchestrators.ExecuteSaveStudent(r.Context(), actorFrom(r, sess), st, deps)
		if err != nil {
			fail(w, r, err, "Could not save the student")
			return
		}
		if msg == "" {
			msg = st.Name + " saved"
		}
		setFlash(w, msg)
		target := "/"
		if segment != "" {
			target = "/" + segment
		}
		http.Redirect(w, r, target, http.StatusSeeOther)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func studentFromForm(r *http.Request) student.Student {
	st := student.Student{
		ID:             formInt(r, "ID"),
		SNo:            r.FormValue("SNo"),
		Name:           r.FormValue("Name"),
		Address1:       r.FormValue("Address1"),
		Address2:       r.FormValue("Address2"),
		School:         r.FormValue("School"),
		GuardianName:   r.FormValue("GuardianName"),
		GuardianMobile: r.FormValue("GuardianMobile"),
		WhatsApp:       r.FormValue("WhatsApp"),
		WhatsApp2:      r.FormValue("WhatsApp2"),
		Gender:         r.FormValue("Gender"),
		TuitionID:      formInt(r, "TuitionID"),
	}
	if dob := strings.TrimSpace(r.FormValue("DOB")); dob != "" {
		if t, err := time.Parse("2006-01-02", dob); err == nil {
			st.DOB = t
		}
	}
	return st
}

type studentResult struct {
	ID     int    `json:"id"`
	SNo    string `json:"sno"`
	Name   string `json:"name"`
	School string `json:"school"`
}

// handleAPIStudentSearch handles GET /api/students/search?name=
func handleAPIStudentSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := currentSession(r)
	found, err := projections.QueryStudentSearch(r.Context(), r.URL.Query().Get("name"), studentSearchLimit,
		projections.StudentSearchDeps{Backend: backendFor(sess)})
	if err != nil {
		fail(w, r, err, "Search failed")
		return
	}
	out := make([]studentResult, 0, len(found))
	for _, st := range found {
		out = append(out, studentResult{ID: st.ID, SNo: st.SNo, Name: st.Name, School: st.School})
	}
	writeJSON(w, http.StatusOK, out)
}

type enableRequest struct {
	SNo       string `json:"sno"`
	TuitionID int    `json:"tuition_id"`
}

// handleAPIStudentEnable handles POST /api/students/enable: re-enrols a student.
func handleAPIStudentEnable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req enableRequest
	if err := strictDecode(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess := currentSession(r)
	deps := orchestrators.StudentDeps{Backend: backendFor(sess), AuditStore: stores.AuditStore, Now: timeNow}
	if err := orchestrators.ExecuteEnableStudent(r.Context(), actorFrom(r, sess), strings.TrimSpace(req.SNo), req.TuitionID, deps); err != nil {
		fail(w, r, err, "Could not enable the student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
