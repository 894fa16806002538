package projections

import (
	"context"

	"tuition/internal/adapters/backend"
	auditStore "tuition/internal/adapters/storage/audit"
	domainAudit "tuition/internal/domain/audit"
	domainOutbox "tuition/internal/domain/outbox"
	"tuition/internal/domain/settings"
	"tuition/internal/domain/student"
)

// ClassReader reads the per-class listings the navigation and dashboard are built from.
type ClassReader interface {
	CategoriesWithGrades(ctx context.Context, class string) ([]backend.CategoryGrades, error)
	DashboardData(ctx context.Context, class string) ([]backend.DashboardCard, error)
	DashboardStats(ctx context.Context, class string) (backend.Stats, error)
}

// RosterReader loads the students of a grade page.
type RosterReader interface {
	FetchStudentData(ctx context.Context, grades []string, class, category string) (backend.Roster, error)
}

// HistoryReader reads the history pickers and a month of history.
type HistoryReader interface {
	Years(ctx context.Context) ([]backend.Year, error)
	Months(ctx context.Context) ([]backend.Month, error)
	Grades(ctx context.Context, class string) ([]backend.GradeOption, error)
	History(ctx context.Context, tuitionID, year, month int) (backend.History, error)
}

// StudentReader reads enrolment forms.
type StudentReader interface {
	GetStudent(ctx context.Context, childID int) (student.Student, error)
	SearchStudents(ctx context.Context, name string) ([]student.Student, error)
}

// SettingsReader reads the settings page.
type SettingsReader interface {
	GetUser(ctx context.Context, email string) (settings.Profile, error)
	GradesAndDays(ctx context.Context, class string) ([]backend.GradeOption, error)
	ListUsers(ctx context.Context) ([]backend.UserSummary, error)
	DashboardStats(ctx context.Context, class string) (backend.Stats, error)
}

// OutboxReader reads queue health for the admin page.
type OutboxReader interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
	ListFailed(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
	ListPending(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
}

// AuditLister reads the audit log.
type AuditLister interface {
	List(ctx context.Context, f auditStore.Filter, limit int) ([]domainAudit.Event, error)
	Count(ctx context.Context, f auditStore.Filter) (int, error)
}
