package projections

import (
	"context"
	"log/slog"

	"tuition/internal/domain/routecodec"
	"tuition/internal/domain/tuition"
)

// NavLink is one grade entry in the sidebar.
type NavLink struct {
	Label   string // "Grade 1 - B"
	Segment string // "s1b"
}

// NavSection is one category block of the sidebar.
type NavSection struct {
	Category string
	Links    []NavLink
}

// Navigation is the sidebar of every page once a class is chosen.
type Navigation struct {
	ClassCode string
	ClassName string
	Sections  []NavSection
}

// NavigationDeps holds dependencies for the sidebar projection.
type NavigationDeps struct {
	Backend ClassReader
}

// QueryNavigation builds the sidebar links of a class. Grades whose names do
// not encode to a route are left out and logged.
// PRE: class is E, S or M
// POST: Every link's Segment decodes back to its label
func QueryNavigation(ctx context.Context, class string, deps NavigationDeps) (Navigation, error) {
	name, err := tuition.ClassName(class)
	if err != nil {
		return Navigation{}, err
	}
	cats, err := deps.Backend.CategoriesWithGrades(ctx, class)
	if err != nil {
		return Navigation{}, err
	}

	nav := Navigation{ClassCode: class, ClassName: name}
	for _, c := range cats {
		section := NavSection{Category: c.Name}
		for _, g := range c.Grades {
			seg, err := routecodec.Encode(g, c.Name)
			if err != nil {
				slog.Warn("grade_route_skipped", "grade", g, "category", c.Name, "error", err)
				continue
			}
			section.Links = append(section.Links, NavLink{Label: routecodec.DisplayLabel(g), Segment: seg})
		}
		if len(section.Links) > 0 {
			nav.Sections = append(nav.Sections, section)
		}
	}
	return nav, nil
}
