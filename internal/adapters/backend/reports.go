package backend

import (
	"context"
	"net/http"
	"strconv"

	"tuition/internal/domain/report"
)

// Roster is the student list of one grade page.
type Roster struct {
	TuitionID int // 0 when the backend has no tuition for the grade
	Rows      []report.Row
}

// History is a month of attendance for one tuition.
type History struct {
	DayHeaders []string
	Rows       []report.Row
}

// Year is a selectable history year.
type Year struct {
	ID   int
	Year string
}

// Month is a selectable history month.
type Month struct {
	ID   int
	Name string
}

// FetchStudentData loads the roster of a grade page. Rows are returned as the
// backend sends them; callers filter inactive students. [POST /fetch-student-data]
func (s *Session) FetchStudentData(ctx context.Context, grades []string, class, category string) (Roster, error) {
	body := struct {
		Grades        []string `json:"grades"`
		SelectedClass string   `json:"selectedClass"`
		Category      string   `json:"category"`
	}{grades, class, category}
	var out struct {
		TuitionID flexInt    `json:"tuitionId"`
		Students  []childDTO `json:"students"`
	}
	if err := s.do(ctx, call{method: http.MethodPost, path: "/fetch-student-data", body: body, out: &out}); err != nil {
		return Roster{}, err
	}
	return Roster{TuitionID: int(out.TuitionID), Rows: toRows(out.Students)}, nil
}

// UpdateWeek sets one week's attendance. [POST /reports]
func (s *Session) UpdateWeek(ctx context.Context, childID, tuitionID, week int, value bool) error {
	body := struct {
		ChildID   int             `json:"child_id"`
		TuitionID int             `json:"tuition_id"`
		Weeks     map[string]bool `json:"weeks"`
	}{childID, tuitionID, map[string]bool{report.WeekField(week): value}}
	return s.do(ctx, call{method: http.MethodPost, path: "/reports", body: body})
}

// UpdatePaid sets the month's paid flag. email is the acting user. [POST /paid]
func (s *Session) UpdatePaid(ctx context.Context, childID, tuitionID int, paid bool, email string) error {
	body := struct {
		ChildID   int    `json:"child_id"`
		TuitionID int    `json:"tuition_id"`
		Paid      bool   `json:"paid"`
		Email     string `json:"email"`
	}{childID, tuitionID, paid, email}
	return s.do(ctx, call{method: http.MethodPost, path: "/paid", body: body})
}

// DeactivateStudent removes a student from a tuition. [PUT /status/{child}]
func (s *Session) DeactivateStudent(ctx context.Context, childID, tuitionID int) error {
	return s.do(ctx, call{
		method: http.MethodPut,
		path:   "/status/" + strconv.Itoa(childID),
		body:   map[string]int{"tuitionId": tuitionID},
	})
}

// Years lists the history years. [GET /years]
func (s *Session) Years(ctx context.Context) ([]Year, error) {
	var out []struct {
		ID   flexInt    `json:"id"`
		Year flexString `json:"year"`
	}
	if err := s.do(ctx, call{method: http.MethodGet, path: "/years", out: &out}); err != nil {
		return nil, err
	}
	years := make([]Year, len(out))
	for i, y := range out {
		years[i] = Year{ID: int(y.ID), Year: string(y.Year)}
	}
	return years, nil
}

// Months lists the history months. [GET /months]
func (s *Session) Months(ctx context.Context) ([]Month, error) {
	var out []struct {
		ID    flexInt `json:"id"`
		Month string  `json:"month"`
	}
	if err := s.do(ctx, call{method: http.MethodGet, path: "/months", out: &out}); err != nil {
		return nil, err
	}
	months := make([]Month, len(out))
	for i, m := range out {
		months[i] = Month{ID: int(m.ID), Name: m.Month}
	}
	return months, nil
}

// History loads a month of attendance for a tuition. [GET /history]
func (s *Session) History(ctx context.Context, tuitionID, year, month int) (History, error) {
	var out struct {
		Students   []childDTO `json:"students"`
		DayHeaders []string   `json:"dayHeaders"`
	}
	err := s.do(ctx, call{
		method: http.MethodGet,
		path:   "/history",
		query: map[string]string{
			"tuitionId": strconv.Itoa(tuitionID),
			"year":      strconv.Itoa(year),
			"month":     strconv.Itoa(month),
		},
		out: &out,
	})
	if err != nil {
		return History{}, err
	}
	return History{DayHeaders: out.DayHeaders, Rows: toRows(out.Students)}, nil
}
