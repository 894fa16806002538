// Package routecodec maps grade/category labels such as
// "Grade 1 - B, 2 - A Spoken" to compact path segments such as "s1b-2a" and back.
package routecodec

import (
	"fmt"
	"strings"
)

// Decode derives a page title from a path segment.
// It never fails: an unknown prefix yields UnknownCategory and grade tokens
// that cannot be parsed are shown as they appear in the path.
// PRE: none
// POST: Returns "Nursery <Category>", "Grade <tokens> <Category>", the bare
// category name when no grade follows the prefix, or UnknownCategory
func Decode(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return UnknownCategory
	}
	cat, ok := ParseCategoryCode(segment[0])
	if !ok {
		return UnknownCategory
	}
	rest := strings.ToLower(segment[1:])
	if strings.HasPrefix(rest, "n") {
		return "Nursery " + cat.Name()
	}
	if r, err := ParseSegment(segment); err == nil {
		return r.Title()
	}
	// No grade: "Paper", never "Grade  Paper".
	if rest == "" {
		return cat.Name()
	}

	var parts []string
	for _, piece := range strings.Split(rest, "-") {
		if piece == "" {
			continue
		}
		toks, err := parseTokens(piece)
		if err != nil {
			parts = append(parts, piece)
			continue
		}
		for _, t := range toks {
			parts = append(parts, t.Display())
		}
	}
	return "Grade " + strings.Join(parts, ", ") + " " + cat.Name()
}

// Encode builds the path segment for a grade label and a category name.
// PRE: none
// POST: Returns ErrInvalidLabel for an empty or unparseable label and
// ErrUnknownCategory for an unknown category name
func Encode(label, categoryName string) (string, error) {
	grades, err := ParseLabel(label)
	if err != nil {
		return "", err
	}
	cat, err := ParseCategoryName(categoryName)
	if err != nil {
		return "", err
	}
	return Route{Category: cat, Grades: grades}.Segment(), nil
}

// EncodeTitle is the inverse of Decode: the last word of the title is the
// category name, everything before it is the grade label.
func EncodeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == UnknownCategory {
		return "", ErrUnknownCategory
	}
	i := strings.LastIndexByte(title, ' ')
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, title)
	}
	return Encode(title[:i], title[i+1:])
}

// ParseLabel reads a human grade label. "Grade" is optional and case-insensitive;
// grades are separated by commas or hyphens; "1 - A", "1a" and "1 - A 2026" are
// all accepted for a single grade.
// PRE: none
// POST: Returns ErrInvalidLabel wrapping the cause for anything unparseable
func ParseLabel(label string) ([]GradeToken, error) {
	if strings.TrimSpace(label) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidLabel)
	}
	var grades []GradeToken
	for _, part := range strings.Split(label, ",") {
		run := compactLabelPart(part)
		if run == "" {
			continue
		}
		toks, err := parseTokens(run)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidLabel, strings.TrimSpace(part), err)
		}
		grades = append(grades, toks...)
	}
	if len(grades) == 0 {
		return nil, fmt.Errorf("%w: no grades in %q", ErrInvalidLabel, label)
	}
	for _, g := range grades {
		if g.Kind == KindNursery && len(grades) > 1 {
			return nil, fmt.Errorf("%w: nursery combined with other grades", ErrInvalidLabel)
		}
	}
	return grades, nil
}

// DisplayLabel normalises a backend grade name for display: "Grade 1b" becomes
// "Grade 1 - B". Names that do not parse are returned unchanged.
func DisplayLabel(raw string) string {
	grades, err := ParseLabel(raw)
	if err != nil {
		return raw
	}
	return Route{Grades: grades}.Label()
}

// compactLabelPart lowercases one comma-separated part of a label, removes the
// "Grade" keyword and whitespace, and joins "1-a" into "1a".
func compactLabelPart(part string) string {
	var b strings.Builder
	for _, w := range strings.Fields(strings.ToLower(part)) {
		switch {
		case w == "grade":
			continue
		case w == "nursery":
			b.WriteString("n")
			continue
		case strings.HasPrefix(w, "grade"):
			w = w[len("grade"):]
		}
		if len(w) > 1 && allLetters(w) {
			w = w[:1]
		}
		b.WriteString(w)
	}
	s := b.String()
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '-' && i > 0 && i+1 < len(s) && isDigit(s[i-1]) && isLower(s[i+1]) {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func allLetters(w string) bool {
	for i := 0; i < len(w); i++ {
		if !isLower(w[i]) {
			return false
		}
	}
	return true
}
