package projections

import (
	"context"
	"time"

	"tuition/internal/adapters/backend"
	"tuition/internal/domain/report"
	"tuition/internal/domain/settings"
	"tuition/internal/domain/student"
)

// 10 March 2026 falls in week 2.
var fixedTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// mockBackend serves canned backend data and records what was asked for.
type mockBackend struct {
	err error

	categories []backend.CategoryGrades
	cards      []backend.DashboardCard
	stats      backend.Stats
	roster     backend.Roster
	history    backend.History
	grades     []backend.GradeOption
	students   []student.Student
	profile    settings.Profile
	users      []backend.UserSummary

	rosterGrades   []string
	rosterCategory string
	calls          []string
}

func (m *mockBackend) call(name string) error {
	m.calls = append(m.calls, name)
	return m.err
}

// CategoriesWithGrades returns the seeded categories.
// PRE: class is non-empty
// POST: Returns categories or err
func (m *mockBackend) CategoriesWithGrades(_ context.Context, _ string) ([]backend.CategoryGrades, error) {
	return m.categories, m.call("CategoriesWithGrades")
}

// DashboardData returns the seeded cards.
func (m *mockBackend) DashboardData(_ context.Context, _ string) ([]backend.DashboardCard, error) {
	return m.cards, m.call("DashboardData")
}

// DashboardStats returns the seeded stats.
func (m *mockBackend) DashboardStats(_ context.Context, _ string) (backend.Stats, error) {
	return m.stats, m.call("DashboardStats")
}

// FetchStudentData records the filter and returns the seeded roster.
func (m *mockBackend) FetchStudentData(_ context.Context, grades []string, _, category string) (backend.Roster, error) {
	m.rosterGrades, m.rosterCategory = grades, category
	return m.roster, m.call("FetchStudentData")
}

// Years returns two years.
func (m *mockBackend) Years(_ context.Context) ([]backend.Year, error) {
	return []backend.Year{{ID: 1, Year: "2025"}, {ID: 2, Year: "2026"}}, m.call("Years")
}

// Months returns January and February.
func (m *mockBackend) Months(_ context.Context) ([]backend.Month, error) {
	return []backend.Month{{ID: 1, Name: "January"}, {ID: 2, Name: "February"}}, m.call("Months")
}

// Grades returns the seeded grades.
func (m *mockBackend) Grades(_ context.Context, _ string) ([]backend.GradeOption, error) {
	return m.grades, m.call("Grades")
}

// GradesAndDays returns the seeded grades.
func (m *mockBackend) GradesAndDays(_ context.Context, _ string) ([]backend.GradeOption, error) {
	return m.grades, m.call("GradesAndDays")
}

// History returns the seeded history.
func (m *mockBackend) History(_ context.Context, _, _, _ int) (backend.History, error) {
	return m.history, m.call("History")
}

// GetStudent returns the first seeded student.
func (m *mockBackend) GetStudent(_ context.Context, childID int) (student.Student, error) {
	if err := m.call("GetStudent"); err != nil {
		return student.Student{}, err
	}
	for _, s := range m.students {
		if s.ID == childID {
			return s, nil
		}
	}
	return student.Student{}, &backend.APIError{Status: 404, Message: "Student not found"}
}

// SearchStudents returns the seeded students.
func (m *mockBackend) SearchStudents(_ context.Context, _ string) ([]student.Student, error) {
	return m.students, m.call("SearchStudents")
}

// GetUser returns the seeded profile.
func (m *mockBackend) GetUser(_ context.Context, _ string) (settings.Profile, error) {
	return m.profile, m.call("GetUser")
}

// ListUsers returns the seeded users.
func (m *mockBackend) ListUsers(_ context.Context) ([]backend.UserSummary, error) {
	return m.users, m.call("ListUsers")
}

func (m *mockBackend) called(name string) bool {
	for _, c := range m.calls {
		if c == name {
			return true
		}
	}
	return false
}

func historyRows() []report.Row {
	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return []report.Row{
		{ChildID: 1, Name: "Amaya", Status: true, Weeks: [5]bool{true, true, false, true}, CreatedAt: jan},
		{ChildID: 2, Name: "Late Joiner", Status: true, Weeks: [5]bool{false, false, true}, CreatedAt: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)},
		{ChildID: 3, Name: "Left Early", CreatedAt: jan},
	}
}
