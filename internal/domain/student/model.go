package student

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"tuition/internal/domain/routecodec"
)

// Field limits.
const (
	MaxSNoLength  = 20
	MaxNameLength = 100
)

// MinSearchLength is the shortest name fragment worth sending to the backend.
const MinSearchLength = 2

// Gender values accepted by the backend.
const (
	GenderFemale = "female"
	GenderMale   = "male"
)

// Domain errors
var (
	ErrEmptySNo      = errors.New("student number is required")
	ErrSNoTooLong    = errors.New("student number must not exceed 20 characters")
	ErrEmptyName     = errors.New("name is required")
	ErrNameTooLong   = errors.New("name must not exceed 100 characters")
	ErrInvalidGender = errors.New("gender must be female or male")
)

// Student is the enrolment form of a child.
type Student struct {
	ID             int
	SNo            string
	Name           string
	DOB            time.Time // zero when unknown
	Address1       string
	Address2       string
	School         string
	GuardianName   string
	GuardianMobile string
	WhatsApp       string
	WhatsApp2      string
	Gender         string
	TuitionID      int
}

// Normalize trims text fields and defaults the gender.
// POST: Gender is GenderFemale when empty
func (s *Student) Normalize() {
	s.SNo = strings.TrimSpace(s.SNo)
	s.Name = strings.TrimSpace(s.Name)
	s.Address1 = strings.TrimSpace(s.Address1)
	s.Address2 = strings.TrimSpace(s.Address2)
	s.School = strings.TrimSpace(s.School)
	s.GuardianName = strings.TrimSpace(s.GuardianName)
	s.GuardianMobile = strings.TrimSpace(s.GuardianMobile)
	s.WhatsApp = strings.TrimSpace(s.WhatsApp)
	s.WhatsApp2 = strings.TrimSpace(s.WhatsApp2)
	s.Gender = strings.ToLower(strings.TrimSpace(s.Gender))
	if s.Gender == "" {
		s.Gender = GenderFemale
	}
}

// Validate checks if the Student has valid data.
// PRE: Student struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Student) Validate() error {
	if s.SNo == "" {
		return ErrEmptySNo
	}
	if utf8.RuneCountInString(s.SNo) > MaxSNoLength {
		return ErrSNoTooLong
	}
	if s.Name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(s.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if s.Gender != "" && s.Gender != GenderFemale && s.Gender != GenderMale {
		return ErrInvalidGender
	}
	return nil
}

// PageTitle builds the heading of the student form for a grade page segment.
// Unknown segments fall back to "New Student" or "Update Student".
func PageTitle(segment string, update bool) string {
	verb := "New"
	if update {
		verb = "Update"
	}
	title := routecodec.Decode(segment)
	if title == routecodec.UnknownCategory {
		return verb + " Student"
	}
	return verb + " " + title + " Student"
}
