package tuition

import (
	"errors"
	"strconv"
	"strings"
)

// Class codes a user picks on the classes page.
const (
	ClassEnglish     = "E"
	ClassScholarship = "S"
	ClassMathematics = "M"
)

// MaxStudentNumber is the highest student number with a known tuition.
const MaxStudentNumber = 1199

// Domain errors
var (
	ErrUnknownClass            = errors.New("unknown class")
	ErrInvalidStudentNumber    = errors.New("student number must be a non-negative integer")
	ErrStudentNumberOutOfRange = errors.New("student number range exceeded, enter a value between 0 and 1199")
)

var classNames = map[string]string{
	ClassEnglish:     "English",
	ClassScholarship: "Scholarship",
	ClassMathematics: "Mathematics",
}

// Classes returns the class codes in display order.
func Classes() []string {
	return []string{ClassEnglish, ClassScholarship, ClassMathematics}
}

// ClassName returns the display name of a class code.
// PRE: none
// POST: Returns ErrUnknownClass for anything other than E, S or M (case-insensitive)
func ClassName(code string) (string, error) {
	name, ok := classNames[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return "", ErrUnknownClass
	}
	return name, nil
}

// NormalizeClass upper-cases and validates a class code.
func NormalizeClass(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := classNames[code]; !ok {
		return "", ErrUnknownClass
	}
	return code, nil
}

// numberBand maps an inclusive upper student number bound to a tuition id.
type numberBand struct {
	upTo      int
	tuitionID int
}

// Ordered by upTo.
var numberBands = []numberBand{
	{99, 1},
	{149, 20},
	{199, 31},
	{299, 21},
	{399, 22},
	{499, 23},
	{599, 24},
	{699, 25},
	{799, 26},
	{899, 27},
	{999, 28},
	{1099, 29},
	{1199, 30},
}

// SuggestTuitionID returns the tuition a new student belongs to, derived from
// the student number band.
// PRE: none
// POST: Returns ErrInvalidStudentNumber for negative or non-numeric input,
// ErrStudentNumberOutOfRange above MaxStudentNumber
func SuggestTuitionID(studentNumber string) (int, error) {
	n, err := strconv.Atoi(leadingDigits(strings.TrimSpace(studentNumber)))
	if err != nil || n < 0 {
		return 0, ErrInvalidStudentNumber
	}
	for _, b := range numberBands {
		if n <= b.upTo {
			return b.tuitionID, nil
		}
	}
	return 0, ErrStudentNumberOutOfRange
}

// leadingDigits keeps an optional sign and the digit prefix, so "120A" reads as 120.
func leadingDigits(s string) string {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
