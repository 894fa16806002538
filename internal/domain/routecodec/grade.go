package routecodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Grade bounds for numbered tokens.
const (
	MinGrade = 1
	MaxGrade = 13
)

// Year bounds for the optional batch year suffix ("1a2026").
const (
	minYear = 1900
	maxYear = 2999
)

// Domain errors
var (
	ErrInvalidLabel    = errors.New("invalid grade label")
	ErrInvalidSegment  = errors.New("invalid route segment")
	ErrGradeOutOfRange = fmt.Errorf("grade must be between %d and %d", MinGrade, MaxGrade)
)

// TokenKind tags the variant held by a GradeToken.
type TokenKind uint8

const (
	KindNursery TokenKind = iota + 1
	KindNumbered
	KindLettered
)

// GradeToken is one grade in a label: Nursery, a numbered grade with optional
// section and year, or a bare section letter.
type GradeToken struct {
	Kind    TokenKind
	Grade   int  // 1..13, KindNumbered only
	Section byte // 'A'..'Z', 0 when absent
	Year    int  // 4-digit batch year, 0 when absent
}

// Nursery returns the nursery token.
func Nursery() GradeToken {
	return GradeToken{Kind: KindNursery}
}

// Numbered returns a numbered grade token. section and year may be zero.
func Numbered(grade int, section byte, year int) GradeToken {
	return GradeToken{Kind: KindNumbered, Grade: grade, Section: toUpperASCII(section), Year: year}
}

// Lettered returns a section-only token such as "A".
func Lettered(section byte) GradeToken {
	return GradeToken{Kind: KindLettered, Section: toUpperASCII(section)}
}

// Validate checks the token invariants.
// PRE: none
// POST: Returns nil if the token can be formatted and parsed back unchanged
func (t GradeToken) Validate() error {
	switch t.Kind {
	case KindNursery:
		return nil
	case KindNumbered:
		if t.Grade < MinGrade || t.Grade > MaxGrade {
			return ErrGradeOutOfRange
		}
		if t.Section != 0 && !isUpper(t.Section) {
			return fmt.Errorf("%w: section %q", ErrInvalidLabel, t.Section)
		}
		if t.Year != 0 {
			if t.Section == 0 {
				return fmt.Errorf("%w: year requires a section", ErrInvalidLabel)
			}
			if t.Year < minYear || t.Year > maxYear {
				return fmt.Errorf("%w: year %d", ErrInvalidLabel, t.Year)
			}
		}
		return nil
	case KindLettered:
		// A bare "n" is read back as Nursery.
		if !isUpper(t.Section) || t.Section == 'N' {
			return fmt.Errorf("%w: section %q", ErrInvalidLabel, t.Section)
		}
		return nil
	default:
		return fmt.Errorf("%w: empty token", ErrInvalidLabel)
	}
}

// Code returns the lowercase route form: "n", "1b", "1a2026", "10", "a".
func (t GradeToken) Code() string {
	switch t.Kind {
	case KindNursery:
		return "n"
	case KindLettered:
		return string(rune(toLowerASCII(t.Section)))
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(t.Grade))
	if t.Section != 0 {
		b.WriteByte(toLowerASCII(t.Section))
	}
	if t.Year != 0 {
		b.WriteString(strconv.Itoa(t.Year))
	}
	return b.String()
}

// Display returns the human form used in titles: "Nursery", "1 - B", "1 - A 2026", "10", "A".
func (t GradeToken) Display() string {
	switch t.Kind {
	case KindNursery:
		return "Nursery"
	case KindLettered:
		return string(rune(t.Section))
	}
	s := strconv.Itoa(t.Grade)
	if t.Section != 0 {
		s += " - " + string(rune(t.Section))
	}
	if t.Year != 0 {
		s += " " + strconv.Itoa(t.Year)
	}
	return s
}

// BackendLabel returns the grade name the backend stores, e.g. "Grade 1b" or "Nursery".
func (t GradeToken) BackendLabel() string {
	if t.Kind == KindNursery {
		return "Nursery"
	}
	return "Grade " + t.Code()
}

// parseTokens reads a lowercase token run such as "1b-2a", "1b2a" or "n".
// Tokens may be hyphen separated or concatenated; a digit run directly after a
// section letter is a year when it is at least four digits long.
func parseTokens(run string) ([]GradeToken, error) {
	if run == "" {
		return nil, fmt.Errorf("%w: no grades", ErrInvalidSegment)
	}
	if run == "n" {
		return []GradeToken{Nursery()}, nil
	}

	var tokens []GradeToken
	i := 0
	for i < len(run) {
		c := run[i]
		switch {
		case c == '-':
			if i == 0 || i == len(run)-1 || run[i-1] == '-' {
				return nil, fmt.Errorf("%w: empty token in %q", ErrInvalidSegment, run)
			}
			i++
			continue
		case isDigit(c):
			tok, next, err := scanNumbered(run, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case isLower(c):
			if i+1 < len(run) && run[i+1] != '-' {
				return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidSegment, run[i+1], run)
			}
			if c == 'n' {
				// Nursery only ever stands alone.
				return nil, fmt.Errorf("%w: nursery combined with other grades", ErrInvalidSegment)
			}
			tokens = append(tokens, Lettered(c))
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidSegment, c, run)
		}
		if i < len(run) && run[i] != '-' && !isDigit(run[i]) {
			return nil, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidSegment, run[i], run)
		}
	}

	for _, t := range tokens {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return tokens, nil
}

// scanNumbered reads "<digits>[<letter>[<year>]]" starting at run[start].
func scanNumbered(run string, start int) (GradeToken, int, error) {
	j := start
	for j < len(run) && isDigit(run[j]) {
		j++
	}
	if j-start > 2 {
		return GradeToken{}, 0, fmt.Errorf("%w: %q", ErrGradeOutOfRange, run[start:j])
	}
	grade, _ := strconv.Atoi(run[start:j])
	tok := Numbered(grade, 0, 0)

	if j < len(run) && isLower(run[j]) {
		tok.Section = toUpperASCII(run[j])
		j++
		k := j
		for k < len(run) && isDigit(run[k]) {
			k++
		}
		if k-j >= 4 {
			if year, _ := strconv.Atoi(run[j : j+4]); year >= minYear && year <= maxYear {
				tok.Year = year
				j += 4
			}
		}
	}
	return tok, j, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func toUpperASCII(c byte) byte {
	if isLower(c) {
		return c - ('a' - 'A')
	}
	return c
}
