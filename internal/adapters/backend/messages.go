package backend

import (
	"context"
	"net/http"

	"tuition/internal/domain/message"
)

// SendTuitionMessage sends a WhatsApp message to selected students. [POST /send-message-to-tuitions]
func (s *Session) SendTuitionMessage(ctx context.Context, m message.TuitionMessage) error {
	body := struct {
		Message   string `json:"message"`
		TuitionID int    `json:"tuition_id"`
		ChildIDs  []int  `json:"child_ids"`
	}{m.Content, m.TuitionID, m.ChildIDs}
	return s.do(ctx, call{method: http.MethodPost, path: "/send-message-to-tuitions", body: body})
}

// Broadcast sends a WhatsApp message to every guardian. [POST /send-whatsapp-messages]
func (s *Session) Broadcast(ctx context.Context, b message.Broadcast) error {
	return s.do(ctx, call{
		method: http.MethodPost,
		path:   "/send-whatsapp-messages",
		body:   map[string]string{"message": b.Content},
	})
}
