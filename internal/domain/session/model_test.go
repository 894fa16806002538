package session_test

import (
	"errors"
	"testing"
	"time"

	"tuition/internal/domain/session"
	"tuition/internal/domain/settings"
	"tuition/internal/domain/tuition"
)

func TestNew(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s, err := session.New("t@example.com", "Dilani", "tok", false, now, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(s.ID) != 64 {
		t.Errorf("ID length = %d, want 64", len(s.ID))
	}
	if !s.ExpiresAt.Equal(now.Add(session.DefaultTTL)) {
		t.Errorf("ExpiresAt = %v", s.ExpiresAt)
	}
	if s.Mode != settings.ModeDark {
		t.Errorf("Mode = %q, want dark", s.Mode)
	}

	other, _ := session.New("t@example.com", "Dilani", "tok", false, now, time.Hour)
	if other.ID == s.ID {
		t.Error("session ids should be random")
	}
}

func TestNew_Validation(t *testing.T) {
	now := time.Now()
	if _, err := session.New("", "x", "tok", false, now, time.Hour); !errors.Is(err, session.ErrEmptyEmail) {
		t.Errorf("empty email: got %v", err)
	}
	if _, err := session.New("t@example.com", "x", "", false, now, time.Hour); !errors.Is(err, session.ErrEmptyToken) {
		t.Errorf("empty token: got %v", err)
	}
	if err := (session.Session{Email: "a", Token: "b"}).Validate(); !errors.Is(err, session.ErrEmptyID) {
		t.Errorf("empty id: got %v", err)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	s := session.Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Error("should not be expired before ExpiresAt")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Error("should be expired at ExpiresAt")
	}
}

func TestSelectClass(t *testing.T) {
	var s session.Session
	if err := s.RequireClass(); !errors.Is(err, session.ErrClassMissing) {
		t.Errorf("RequireClass before selection: %v", err)
	}
	if s.ClassName() != "" {
		t.Errorf("ClassName() = %q, want empty", s.ClassName())
	}
	if err := s.SelectClass("x"); !errors.Is(err, tuition.ErrUnknownClass) {
		t.Errorf("SelectClass(x): %v", err)
	}
	if err := s.SelectClass(" m "); err != nil {
		t.Fatalf("SelectClass(m): %v", err)
	}
	if s.Class != tuition.ClassMathematics || s.RequireClass() != nil {
		t.Errorf("Class = %q", s.Class)
	}
	if s.ClassName() != "Mathematics" {
		t.Errorf("ClassName() = %q", s.ClassName())
	}
}
