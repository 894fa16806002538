package settings

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MaxEmailLength matches the backend column width.
const MaxEmailLength = 254

// Domain errors
var (
	ErrEmptyName       = errors.New("name is required")
	ErrEmptyEmail      = errors.New("email is required")
	ErrInvalidEmail    = errors.New("email must contain '@'")
	ErrInvalidMode     = errors.New("mode must be L or D")
	ErrInvalidDay      = errors.New("day must be between 1 (Monday) and 7 (Sunday)")
	ErrInvalidTemplate = errors.New("unknown grade template key")
)

// Profile is a dashboard user's name, email and WhatsApp message templates.
type Profile struct {
	Name               string
	Email              string
	BeforePaymentWeek3 string
	BeforePaymentWeek4 string
	AfterPayment       string
	AfterSpokenPayment string
	AfterGroupPayment  string
	GradeTemplates     []GradeTemplate
}

// GradeTemplate is a per-grade after-payment message, keyed
// "after_payment_nursery_template" or "after_payment_grade<N>_template".
type GradeTemplate struct {
	Key   string
	Value string
}

// Validate checks if the Profile has valid data.
// PRE: Profile struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(email, "@") || len(email) > MaxEmailLength {
		return ErrInvalidEmail
	}
	for _, t := range p.GradeTemplates {
		if !IsGradeTemplateKey(t.Key) {
			return ErrInvalidTemplate
		}
	}
	return nil
}

// SetGradeTemplate replaces the value of an existing per-grade template.
// PRE: key is a grade template key
// POST: Returns ErrInvalidTemplate if the profile has no such key
func (p *Profile) SetGradeTemplate(key, value string) error {
	for i := range p.GradeTemplates {
		if p.GradeTemplates[i].Key == key {
			p.GradeTemplates[i].Value = value
			return nil
		}
	}
	return ErrInvalidTemplate
}

var gradeTemplateKey = regexp.MustCompile(`^after_payment_(nursery|grade\d+)_template$`)

// IsGradeTemplateKey reports whether key names a per-grade template.
func IsGradeTemplateKey(key string) bool {
	return gradeTemplateKey.MatchString(key)
}

// TemplateLabel turns a grade template key into a label:
// "after_payment_grade5_template" becomes "Grade 5".
func TemplateLabel(key string) string {
	m := gradeTemplateKey.FindStringSubmatch(key)
	if m == nil {
		return key
	}
	if m[1] == "nursery" {
		return "Nursery"
	}
	return "Grade " + strings.TrimPrefix(m[1], "grade")
}

// SortGradeTemplates orders templates Nursery first, then by grade number.
func SortGradeTemplates(ts []GradeTemplate) {
	rank := func(key string) int {
		m := gradeTemplateKey.FindStringSubmatch(key)
		if m == nil {
			return 1 << 30
		}
		if m[1] == "nursery" {
			return 0
		}
		n, _ := strconv.Atoi(strings.TrimPrefix(m[1], "grade"))
		return n
	}
	sort.SliceStable(ts, func(i, j int) bool { return rank(ts[i].Key) < rank(ts[j].Key) })
}
