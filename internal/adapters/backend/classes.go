package backend

import (
	"context"
	"net/http"
)

// CategoryGrades is one sidebar section: a category and its grade names.
type CategoryGrades struct {
	Name   string
	Grades []string
}

// GradeOption is a tuition as offered in the history and settings pickers.
type GradeOption struct {
	ID    int
	Grade string // grade title, e.g. "Grade 1b Spoken"
	DayID int
}

// DashboardCard is one tile on the dashboard.
type DashboardCard struct {
	ID           int
	Category     string
	Grade        string
	StudentCount int
}

// Stats are the class totals shown in settings.
type Stats struct {
	ActiveStudents int
	PaidStudents   int
}

type classBody struct {
	SelectedClass string `json:"selectedClass"`
}

// CategoriesWithGrades lists the sidebar for a class. [GET /category-with-grades]
func (s *Session) CategoriesWithGrades(ctx context.Context, class string) ([]CategoryGrades, error) {
	var out []struct {
		CategoryName string   `json:"category_name"`
		Grades       []string `json:"grades"`
	}
	err := s.do(ctx, call{
		method: http.MethodGet,
		path:   "/category-with-grades",
		query:  map[string]string{"class": class},
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	cats := make([]CategoryGrades, len(out))
	for i, c := range out {
		cats[i] = CategoryGrades{Name: c.CategoryName, Grades: c.Grades}
	}
	return cats, nil
}

func (s *Session) gradeOptions(ctx context.Context, path, class string) ([]GradeOption, error) {
	var out struct {
		Data []struct {
			ID    flexInt `json:"id"`
			Grade string  `json:"grade"`
			DayID flexInt `json:"day_id"`
		} `json:"data"`
	}
	if err := s.do(ctx, call{method: http.MethodPost, path: path, body: classBody{class}, out: &out}); err != nil {
		return nil, err
	}
	opts := make([]GradeOption, len(out.Data))
	for i, g := range out.Data {
		opts[i] = GradeOption{ID: int(g.ID), Grade: g.Grade, DayID: int(g.DayID)}
	}
	return opts, nil
}

// Grades lists the tuitions of a class. [POST /grades]
func (s *Session) Grades(ctx context.Context, class string) ([]GradeOption, error) {
	return s.gradeOptions(ctx, "/grades", class)
}

// GradesAndDays lists the tuitions of a class with their class day. [POST /gradesAndDays]
func (s *Session) GradesAndDays(ctx context.Context, class string) ([]GradeOption, error) {
	return s.gradeOptions(ctx, "/gradesAndDays", class)
}

// UpdateDay moves a tuition to another weekday. [POST /update-day]
func (s *Session) UpdateDay(ctx context.Context, tuitionID, dayID int) error {
	return s.do(ctx, call{
		method: http.MethodPost,
		path:   "/update-day",
		body:   map[string]int{"id": tuitionID, "day_id": dayID},
	})
}

// DashboardData lists the dashboard tiles for a class. [POST /get-dashboard-data]
func (s *Session) DashboardData(ctx context.Context, class string) ([]DashboardCard, error) {
	var out struct {
		Data []struct {
			ID           flexInt `json:"id"`
			Category     string  `json:"category"`
			Grade        string  `json:"grade"`
			StudentCount flexInt `json:"student_count"`
		} `json:"data"`
	}
	if err := s.do(ctx, call{method: http.MethodPost, path: "/get-dashboard-data", body: classBody{class}, out: &out}); err != nil {
		return nil, err
	}
	cards := make([]DashboardCard, len(out.Data))
	for i, d := range out.Data {
		cards[i] = DashboardCard{ID: int(d.ID), Category: d.Category, Grade: d.Grade, StudentCount: int(d.StudentCount)}
	}
	return cards, nil
}

// DashboardStats returns active and paid totals for the month. [POST /dashboard-stats]
func (s *Session) DashboardStats(ctx context.Context, class string) (Stats, error) {
	var out struct {
		TotalActiveStudents flexInt `json:"totalActiveStudents"`
		TotalPaidStudents   flexInt `json:"totalPaidStudents"`
	}
	if err := s.do(ctx, call{method: http.MethodPost, path: "/dashboard-stats", body: classBody{class}, out: &out}); err != nil {
		return Stats{}, err
	}
	return Stats{ActiveStudents: int(out.TotalActiveStudents), PaidStudents: int(out.TotalPaidStudents)}, nil
}

// PaymentReminders asks the backend to send due payment reminders. It returns
// the backend's status message, "no" when nothing was sent. [GET /send-payment-reminders]
func (s *Session) PaymentReminders(ctx context.Context, email string) (string, error) {
	var out messageResponse
	err := s.do(ctx, call{
		method: http.MethodGet,
		path:   "/send-payment-reminders",
		query:  map[string]string{"email": email},
		out:    &out,
	})
	return out.Message, err
}
