// Package email delivers monthly attendance reports.
package email

import (
	"context"
	"time"
)

// Attachment is a file sent along with an email.
type Attachment struct {
	Filename string
	Content  []byte
}

// SendRequest is one outgoing email.
type SendRequest struct {
	To          []string
	From        string // falls back to the sender's default
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// SendResult is the provider's acknowledgement.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
