package routecodec

import (
	"errors"
	"strings"
)

// Category is a class type. The value is the single-letter route code.
type Category byte

// Known categories.
const (
	CategorySpoken Category = 's'
	CategoryTheory Category = 't'
	CategoryGroup  Category = 'g'
	CategoryPaper  Category = 'p'
)

// UnknownCategory is the title shown for segments with an unrecognised prefix.
const UnknownCategory = "Unknown Category"

// ErrUnknownCategory is returned when a category name or code is not recognised.
var ErrUnknownCategory = errors.New("unknown category")

var categoryNames = map[Category]string{
	CategorySpoken: "Spoken",
	CategoryTheory: "Theory",
	CategoryGroup:  "Group",
	CategoryPaper:  "Paper",
}

// Categories lists every category in sidebar order.
func Categories() []Category {
	return []Category{CategorySpoken, CategoryTheory, CategoryGroup, CategoryPaper}
}

// ParseCategoryCode maps a route prefix character to its category.
// PRE: none
// POST: Returns the category and true if c (any case) is s, t, g or p
func ParseCategoryCode(c byte) (Category, bool) {
	cat := Category(toLowerASCII(c))
	_, ok := categoryNames[cat]
	return cat, ok
}

// ParseCategoryName maps a display name such as "Spoken" to its category.
// PRE: none
// POST: Returns ErrUnknownCategory unless name matches a known category (case-insensitive)
func ParseCategoryName(name string) (Category, error) {
	name = strings.TrimSpace(name)
	for cat, n := range categoryNames {
		if strings.EqualFold(n, name) {
			return cat, nil
		}
	}
	return 0, ErrUnknownCategory
}

// Code returns the route prefix letter.
func (c Category) Code() string {
	return string(rune(c))
}

// Name returns the display name, or an empty string for an unknown category.
func (c Category) Name() string {
	return categoryNames[c]
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// String implements fmt.Stringer.
func (c Category) String() string {
	if n := c.Name(); n != "" {
		return n
	}
	return UnknownCategory
}

func toLowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
