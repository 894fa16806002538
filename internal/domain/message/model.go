package message

import (
	"errors"
	"strings"
)

// MaxLength caps a WhatsApp message body.
const MaxLength = 4096

// Domain errors
var (
	ErrEmptyContent   = errors.New("message is empty, please enter a message")
	ErrContentTooLong = errors.New("message must not exceed 4096 characters")
	ErrEmptyTuitionID = errors.New("tuition ID is missing, please try again")
	ErrNoRecipients   = errors.New("select at least one student")
	ErrInvalidChildID = errors.New("child ID must be positive")
)

// TuitionMessage is a WhatsApp message to selected students of one tuition.
type TuitionMessage struct {
	Content   string
	TuitionID int
	ChildIDs  []int
}

// Validate checks if the TuitionMessage has valid data.
// PRE: TuitionMessage struct is populated
// POST: Returns nil if valid, error otherwise
func (m *TuitionMessage) Validate() error {
	if err := validateContent(m.Content); err != nil {
		return err
	}
	if m.TuitionID <= 0 {
		return ErrEmptyTuitionID
	}
	if len(m.ChildIDs) == 0 {
		return ErrNoRecipients
	}
	for _, id := range m.ChildIDs {
		if id <= 0 {
			return ErrInvalidChildID
		}
	}
	return nil
}

// Dedupe removes repeated child IDs, keeping the first occurrence.
func (m *TuitionMessage) Dedupe() {
	seen := make(map[int]bool, len(m.ChildIDs))
	out := m.ChildIDs[:0]
	for _, id := range m.ChildIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	m.ChildIDs = out
}

// Broadcast is a WhatsApp message to every guardian of the selected class.
type Broadcast struct {
	Content string
}

// Validate checks if the Broadcast has valid data.
func (b *Broadcast) Validate() error {
	return validateContent(b.Content)
}

func validateContent(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyContent
	}
	if len([]rune(s)) > MaxLength {
		return ErrContentTooLong
	}
	return nil
}
