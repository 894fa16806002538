package settings

import "strings"

// Mode is the stored theme flag.
type Mode string

const (
	ModeLight Mode = "L"
	ModeDark  Mode = "D"
)

// ParseMode accepts "L", "D", "light" or "dark" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l", "light":
		return ModeLight, nil
	case "d", "dark":
		return ModeDark, nil
	}
	return "", ErrInvalidMode
}

// Theme returns the CSS theme name.
func (m Mode) Theme() string {
	if m == ModeLight {
		return "light"
	}
	return "dark"
}

// Toggle returns the opposite mode.
func (m Mode) Toggle() Mode {
	if m == ModeLight {
		return ModeDark
	}
	return ModeLight
}

// Day is a class day. The backend numbers them 1 (Monday) to 7 (Sunday).
type Day struct {
	ID    int
	Label string
}

var days = []Day{
	{1, "Monday"},
	{2, "Tuesday"},
	{3, "Wednesday"},
	{4, "Thursday"},
	{5, "Friday"},
	{6, "Saturday"},
	{7, "Sunday"},
}

// Days returns the selectable class days.
func Days() []Day {
	out := make([]Day, len(days))
	copy(out, days)
	return out
}

// ValidateDay checks a day id.
func ValidateDay(id int) error {
	if id < 1 || id > len(days) {
		return ErrInvalidDay
	}
	return nil
}

// UserStatus is an account's enabled flag as the backend encodes it.
type UserStatus int

const (
	UserDisabled UserStatus = 0
	UserEnabled  UserStatus = 1
)

// ParseUserStatus accepts "enable" or "disable".
func ParseUserStatus(s string) (UserStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enable", "enabled", "1":
		return UserEnabled, true
	case "disable", "disabled", "0":
		return UserDisabled, true
	}
	return UserDisabled, false
}

// String returns "enable" or "disable".
func (s UserStatus) String() string {
	if s == UserEnabled {
		return "enable"
	}
	return "disable"
}

// IsAdmin reports whether email is one of the configured administrators.
func IsAdmin(email string, admins []string) bool {
	email = strings.TrimSpace(email)
	for _, a := range admins {
		if strings.EqualFold(strings.TrimSpace(a), email) && email != "" {
			return true
		}
	}
	return false
}
