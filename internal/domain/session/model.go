package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"tuition/internal/domain/settings"
	"tuition/internal/domain/tuition"
)

// DefaultTTL is how long a dashboard login lasts.
const DefaultTTL = 24 * time.Hour

// Domain errors
var (
	ErrEmptyID      = errors.New("session id is required")
	ErrEmptyEmail   = errors.New("session email is required")
	ErrEmptyToken   = errors.New("backend token is required")
	ErrExpired      = errors.New("session expired")
	ErrNotFound     = errors.New("session not found")
	ErrClassMissing = errors.New("no class selected")
)

// Session is one signed-in dashboard user. Token is the backend bearer token;
// it is only ever stored sealed.
type Session struct {
	ID        string
	Email     string
	Name      string
	Token     string
	Class     string // tuition class code, empty until chosen on /classes
	Mode      settings.Mode
	Admin     bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// New starts a session for a successful backend login.
// PRE: email and token are non-empty
// POST: Returns a session with a random 64-hex-char ID expiring after ttl
func New(email, name, token string, admin bool, now time.Time, ttl time.Duration) (Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	id, err := NewID()
	if err != nil {
		return Session{}, err
	}
	s := Session{
		ID:        id,
		Email:     email,
		Name:      name,
		Token:     token,
		Mode:      settings.ModeDark,
		Admin:     admin,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return s, s.Validate()
}

// NewID returns a random cookie value.
func NewID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Validate checks the required fields.
func (s Session) Validate() error {
	if s.ID == "" {
		return ErrEmptyID
	}
	if s.Email == "" {
		return ErrEmptyEmail
	}
	if s.Token == "" {
		return ErrEmptyToken
	}
	return nil
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SelectClass records the class chosen on the class picker.
// PRE: code is E, S or M in any case
// POST: Class holds the upper-case code
func (s *Session) SelectClass(code string) error {
	c, err := tuition.NormalizeClass(code)
	if err != nil {
		return err
	}
	s.Class = c
	return nil
}

// RequireClass returns ErrClassMissing until a class is chosen.
func (s Session) RequireClass() error {
	if s.Class == "" {
		return ErrClassMissing
	}
	return nil
}

// ClassName is the display name of the selected class, empty when none.
func (s Session) ClassName() string {
	name, _ := tuition.ClassName(s.Class)
	return name
}
