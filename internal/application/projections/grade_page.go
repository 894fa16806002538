package projections

import (
	"context"
	"time"

	"tuition/internal/domain/report"
	"tuition/internal/domain/routecodec"
)

// GradePageInput carries the route and filters of a grade page.
type GradePageInput struct {
	Segment string
	Class   string
	Search  string
	Now     time.Time
}

// GradePage is the attendance and payment sheet of one grade page.
type GradePage struct {
	Title       string
	Segment     string
	Category    string
	IsNursery   bool
	TuitionID   int // 0 when the backend has no tuition for these grades yet
	Rows        []report.Row
	TotalActive int // before the search filter
	Search      string
	CurrentWeek int
	Editable    [report.MaxWeeks]bool // index 0 is week 1
}

// WeekEditable reports whether a 1-based week column can be toggled.
func (p GradePage) WeekEditable(week int) bool {
	if week < 1 || week > report.MaxWeeks {
		return false
	}
	return p.Editable[week-1]
}

// GradePageDeps holds dependencies for the grade page projection.
type GradePageDeps struct {
	Backend RosterReader
}

// QueryGradePage loads the active students of the grades a segment names.
// PRE: input.Segment is a route segment such as "s1b-2a"
// POST: Returns routecodec errors for segments that do not parse strictly
func QueryGradePage(ctx context.Context, input GradePageInput, deps GradePageDeps) (GradePage, error) {
	route, err := routecodec.ParseSegment(input.Segment)
	if err != nil {
		return GradePage{}, err
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}

	roster, err := deps.Backend.FetchStudentData(ctx, route.BackendGrades(), input.Class, route.Category.Name())
	if err != nil {
		return GradePage{}, err
	}
	active := report.FilterActive(roster.Rows)

	page := GradePage{
		Title:       route.Title(),
		Segment:     route.Segment(),
		Category:    route.Category.Name(),
		IsNursery:   route.IsNursery(),
		TuitionID:   roster.TuitionID,
		Rows:        report.Search(active, input.Search),
		TotalActive: len(active),
		Search:      input.Search,
		CurrentWeek: report.CurrentWeek(now),
	}
	for w := 1; w <= report.MaxWeeks; w++ {
		page.Editable[w-1] = report.WeekEditable(w, now)
	}
	return page, nil
}
