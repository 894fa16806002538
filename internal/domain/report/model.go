package report

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// MaxWeeks is the number of week columns in a month.
const MaxWeeks = 5

// Domain errors
var (
	ErrInvalidWeek    = errors.New("week must be between 1 and 5")
	ErrWeekLocked     = errors.New("week is already closed")
	ErrEmptyChildID   = errors.New("child ID is required")
	ErrEmptyTuitionID = errors.New("tuition ID is required")
)

// Row is one student's attendance and payment state for a month.
type Row struct {
	ChildID   int
	SNo       string
	Name      string
	WhatsApp  string
	WhatsApp2 string
	Weeks     [MaxWeeks]bool // index 0 is week 1
	Paid      bool
	NotPaid   bool // payment reminder already sent and still unpaid
	Status    bool // active enrolment
	CreatedAt time.Time
}

// Week reports attendance for a 1-based week. Out of range weeks read as false.
func (r Row) Week(week int) bool {
	if week < 1 || week > MaxWeeks {
		return false
	}
	return r.Weeks[week-1]
}

// AttendedWeeks counts the weeks marked as attended.
func (r Row) AttendedWeeks() int {
	n := 0
	for _, w := range r.Weeks {
		if w {
			n++
		}
	}
	return n
}

// Contact returns the primary WhatsApp number, falling back to the secondary one.
func (r Row) Contact() string {
	if r.WhatsApp != "" {
		return r.WhatsApp
	}
	return r.WhatsApp2
}

// CurrentWeek returns the week of the month a date falls in: ceil(day/7) capped at 5.
// PRE: none
// POST: Returns a value in [1, 5]
func CurrentWeek(now time.Time) int {
	week := (now.Day() + 6) / 7
	if week > MaxWeeks {
		return MaxWeeks
	}
	return week
}

// WeekEditable reports whether a week checkbox may still be changed.
// Weeks before the current week are closed.
func WeekEditable(week int, now time.Time) bool {
	if week < 1 || week > MaxWeeks {
		return false
	}
	return week >= CurrentWeek(now)
}

// ParseWeek accepts "3" or "week3".
func ParseWeek(s string) (int, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "week")
	week, err := strconv.Atoi(s)
	if err != nil || week < 1 || week > MaxWeeks {
		return 0, ErrInvalidWeek
	}
	return week, nil
}

// WeekField returns the backend field name for a week, e.g. "week3".
func WeekField(week int) string {
	return "week" + strconv.Itoa(week)
}

// IncludeInHistory reports whether a row belongs on the history sheet: active
// students, students who attended at least two weeks, and anyone who paid.
func IncludeInHistory(r Row) bool {
	return r.Status || r.AttendedWeeks() >= 2 || r.Paid
}

// FilterHistory keeps rows that satisfy IncludeInHistory, preserving order.
func FilterHistory(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if IncludeInHistory(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterActive keeps active students and fills WhatsApp from WhatsApp2 when empty.
func FilterActive(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !r.Status {
			continue
		}
		r.WhatsApp = r.Contact()
		out = append(out, r)
	}
	return out
}

// Search filters rows by a case-insensitive substring of student number, name or WhatsApp.
// An empty query returns rows unchanged.
func Search(rows []Row, query string) []Row {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.SNo), q) ||
			strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strings.ToLower(r.Contact()), q) {
			out = append(out, r)
		}
	}
	return out
}
