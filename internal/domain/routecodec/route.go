package routecodec

import (
	"fmt"
	"strings"
)

// Route is a parsed path segment: one category and an ordered grade list.
type Route struct {
	Category Category
	Grades   []GradeToken
}

// NewRoute builds and validates a route.
// PRE: none
// POST: Returns a route whose Segment() parses back to an equal route
func NewRoute(cat Category, grades ...GradeToken) (Route, error) {
	r := Route{Category: cat, Grades: grades}
	if err := r.Validate(); err != nil {
		return Route{}, err
	}
	return r, nil
}

// Validate checks the route invariants.
func (r Route) Validate() error {
	if !r.Category.Valid() {
		return ErrUnknownCategory
	}
	if len(r.Grades) == 0 {
		return fmt.Errorf("%w: no grades", ErrInvalidLabel)
	}
	for _, g := range r.Grades {
		if err := g.Validate(); err != nil {
			return err
		}
		if g.Kind == KindNursery && len(r.Grades) > 1 {
			return fmt.Errorf("%w: nursery combined with other grades", ErrInvalidLabel)
		}
	}
	return nil
}

// ParseSegment is the strict parser for a path segment such as "s1b-2a", "s1b2a" or "pn".
// PRE: none
// POST: Returns ErrUnknownCategory for an unknown prefix, ErrInvalidSegment or
// ErrGradeOutOfRange for a malformed grade run
func ParseSegment(segment string) (Route, error) {
	segment = strings.ToLower(strings.TrimSpace(segment))
	if segment == "" {
		return Route{}, fmt.Errorf("%w: empty", ErrInvalidSegment)
	}
	cat, ok := ParseCategoryCode(segment[0])
	if !ok {
		return Route{}, ErrUnknownCategory
	}
	grades, err := parseTokens(segment[1:])
	if err != nil {
		return Route{}, err
	}
	return Route{Category: cat, Grades: grades}, nil
}

// Segment formats the canonical path segment. Tokens are always hyphen joined.
func (r Route) Segment() string {
	codes := make([]string, len(r.Grades))
	for i, g := range r.Grades {
		codes[i] = g.Code()
	}
	return r.Category.Code() + strings.Join(codes, "-")
}

// Label returns the grade part of the title: "Nursery" or "Grade 1 - B, 2 - A".
func (r Route) Label() string {
	if r.IsNursery() {
		return "Nursery"
	}
	parts := make([]string, len(r.Grades))
	for i, g := range r.Grades {
		parts[i] = g.Display()
	}
	return "Grade " + strings.Join(parts, ", ")
}

// Title returns the page title, e.g. "Grade 1 - B, 2 - A Spoken".
func (r Route) Title() string {
	return r.Label() + " " + r.Category.Name()
}

// IsNursery reports whether the route addresses the nursery class.
func (r Route) IsNursery() bool {
	return len(r.Grades) == 1 && r.Grades[0].Kind == KindNursery
}

// BackendGrades lists the grade names the backend filters students by.
func (r Route) BackendGrades() []string {
	out := make([]string, len(r.Grades))
	for i, g := range r.Grades {
		out[i] = g.BackendLabel()
	}
	return out
}
