package projections

import (
	"context"
	"strings"
	"unicode/utf8"

	"tuition/internal/domain/student"
	"tuition/internal/domain/tuition"
)

// StudentForm is the create/update form of a student.
type StudentForm struct {
	Title              string
	Segment            string // grade page to return to, may be empty
	Update             bool
	Student            student.Student
	SuggestedTuitionID int // 0 when the student number gives no suggestion
}

// StudentFormInput selects the form to show.
type StudentFormInput struct {
	Segment string
	ChildID int    // 0 for a new student
	SNo     string // prefilled student number for a new student
}

// StudentFormDeps holds dependencies for the student form projection.
type StudentFormDeps struct {
	Backend StudentReader
}

// QueryStudentForm loads a student for editing, or an empty form.
// PRE: ChildID >= 0
// POST: Update is true iff ChildID > 0
func QueryStudentForm(ctx context.Context, input StudentFormInput, deps StudentFormDeps) (StudentForm, error) {
	form := StudentForm{
		Segment: input.Segment,
		Update:  input.ChildID > 0,
		Title:   student.PageTitle(input.Segment, input.ChildID > 0),
	}
	if form.Update {
		st, err := deps.Backend.GetStudent(ctx, input.ChildID)
		if err != nil {
			return StudentForm{}, err
		}
		form.Student = st
	} else {
		form.Student.SNo = strings.TrimSpace(input.SNo)
		form.Student.Gender = student.GenderFemale
	}
	if id, err := tuition.SuggestTuitionID(form.Student.SNo); err == nil {
		form.SuggestedTuitionID = id
	}
	return form, nil
}

// StudentSearchDeps holds dependencies for the student search projection.
type StudentSearchDeps struct {
	Backend StudentReader
}

// QueryStudentSearch finds existing students to re-enrol. Fragments shorter
// than student.MinSearchLength return nothing without asking the backend.
// POST: Returns at most limit students
func QueryStudentSearch(ctx context.Context, name string, limit int, deps StudentSearchDeps) ([]student.Student, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < student.MinSearchLength {
		return nil, nil
	}
	found, err := deps.Backend.SearchStudents(ctx, name)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}
