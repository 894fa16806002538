package projections

import (
	"context"
	"sort"

	"tuition/internal/adapters/backend"
	"tuition/internal/domain/routecodec"
)

// DashboardCard is one tile: a grade page link and its student count.
type DashboardCard struct {
	TuitionID    int
	Title        string
	Segment      string // empty when the grade has no page
	StudentCount int
}

// Dashboard is the home page of a class.
type Dashboard struct {
	Cards         []DashboardCard
	Stats         backend.Stats
	TotalStudents int
	UnpaidCount   int
}

// DashboardDeps holds dependencies for the dashboard projection.
type DashboardDeps struct {
	Backend ClassReader
}

// QueryDashboard builds the class dashboard. Cards are ordered by title.
// PRE: class is a selected class code
// POST: TotalStudents is the sum of card counts
func QueryDashboard(ctx context.Context, class string, deps DashboardDeps) (Dashboard, error) {
	cards, err := deps.Backend.DashboardData(ctx, class)
	if err != nil {
		return Dashboard{}, err
	}
	stats, err := deps.Backend.DashboardStats(ctx, class)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Stats: stats}
	for _, c := range cards {
		card := DashboardCard{
			TuitionID:    c.ID,
			Title:        routecodec.DisplayLabel(c.Grade) + " " + c.Category,
			StudentCount: c.StudentCount,
		}
		if seg, err := routecodec.Encode(c.Grade, c.Category); err == nil {
			card.Segment = seg
		}
		d.Cards = append(d.Cards, card)
		d.TotalStudents += c.StudentCount
	}
	sort.SliceStable(d.Cards, func(i, j int) bool { return d.Cards[i].Title < d.Cards[j].Title })
	if unpaid := stats.ActiveStudents - stats.PaidStudents; unpaid > 0 {
		d.UnpaidCount = unpaid
	}
	return d, nil
}
