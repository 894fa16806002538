package orchestrators

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	domainAudit "tuition/internal/domain/audit"
	"tuition/internal/domain/report"
	"tuition/internal/domain/student"
	"tuition/internal/domain/tuition"
)

// StudentWriter is the subset of the backend session used by the student form.
type StudentWriter interface {
	CreateStudent(ctx context.Context, st student.Student) (string, error)
	UpdateStudent(ctx context.Context, childID int, st student.Student) (string, error)
	EnableStudent(ctx context.Context, sno string, tuitionID int) error
}

// StudentDeps holds dependencies for the student orchestrators.
type StudentDeps struct {
	Backend    StudentWriter
	AuditStore AuditRecorder
	Now        func() time.Time
}

// ExecuteSaveStudent creates a student, or updates one when st.ID is set.
// A missing tuition id is filled in from the student number bands.
// PRE: st has a student number and a name
// POST: Returns the backend's confirmation message
func ExecuteSaveStudent(ctx context.Context, actor Actor, st student.Student, deps StudentDeps) (string, error) {
	st.Normalize()
	if err := st.Validate(); err != nil {
		return "", err
	}
	if st.TuitionID == 0 {
		id, err := tuition.SuggestTuitionID(st.SNo)
		if err != nil {
			return "", err
		}
		st.TuitionID = id
	}

	var (
		msg    string
		err    error
		action = domainAudit.ActionCreate
	)
	if st.ID > 0 {
		action = domainAudit.ActionUpdate
		msg, err = deps.Backend.UpdateStudent(ctx, st.ID, st)
	} else {
		msg, err = deps.Backend.CreateStudent(ctx, st)
	}
	if err != nil {
		return "", err
	}

	slog.Info("student_saved", "sno", st.SNo, "tuition_id", st.TuitionID, "action", action)
	recordAudit(ctx, deps.AuditStore, actor,
		domainAudit.NewEvent(actor.Email, domainAudit.CategoryStudent, action, nowOr(deps.Now)).
			WithResource("student", st.SNo).
			WithDescription(st.Name))
	return msg, nil
}

// ExecuteEnableStudent re-activates a student's enrolment in a tuition.
// PRE: sno is non-empty; tuitionID is positive
// POST: Student is active on the backend
func ExecuteEnableStudent(ctx context.Context, actor Actor, sno string, tuitionID int, deps StudentDeps) error {
	if sno == "" {
		return student.ErrEmptySNo
	}
	if tuitionID <= 0 {
		return report.ErrEmptyTuitionID
	}
	if err := deps.Backend.EnableStudent(ctx, sno, tuitionID); err != nil {
		return err
	}
	slog.Info("student_enabled", "sno", sno, "tuition_id", tuitionID)
	recordAudit(ctx, deps.AuditStore, actor,
		domainAudit.NewEvent(actor.Email, domainAudit.CategoryStudent, domainAudit.ActionEnable, nowOr(deps.Now)).
			WithResource("student", sno).
			WithDescription("tuition "+strconv.Itoa(tuitionID)))
	return nil
}
