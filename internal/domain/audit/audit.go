package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Category groups audit events by the dashboard area that produced them.
type Category string

const (
	CategoryAccount    Category = "account"
	CategoryAttendance Category = "attendance"
	CategoryPayment    Category = "payment"
	CategoryStudent    Category = "student"
	CategoryMessaging  Category = "messaging"
	CategoryReport     Category = "report"
	CategorySettings   Category = "settings"
)

// Action is the kind of change recorded.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
	ActionEnable Action = "enable"
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
	ActionSend   Action = "send"
	ActionExport Action = "export"
	ActionQueue  Action = "queue"
)

// Severity marks events an operator should look at.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Domain errors
var (
	ErrEmptyActor  = errors.New("actor email is required")
	ErrEmptyAction = errors.New("action is required")
)

// Event is one audit log entry.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorEmail   string    `json:"actor_email"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Description  string    `json:"description"`
	IPAddress    string    `json:"ip_address"`
}

// NewEvent creates an info event stamped with now.
// PRE: actorEmail and action are non-empty
// POST: Returns an Event with a fresh UUID
func NewEvent(actorEmail string, category Category, action Action, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Category:   category,
		Action:     action,
		Severity:   SeverityInfo,
		ActorEmail: actorEmail,
	}
}

// Validate checks the required fields.
func (e Event) Validate() error {
	if e.ActorEmail == "" {
		return ErrEmptyActor
	}
	if e.Action == "" {
		return ErrEmptyAction
	}
	return nil
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets what the event is about, e.g. ("child", "42").
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets a human-readable summary.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithIP records the client address.
func (e Event) WithIP(ip string) Event {
	e.IPAddress = ip
	return e
}
