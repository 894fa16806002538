package outbox

import "fmt"

// WeekReport replays a week attendance checkbox.
type WeekReport struct {
	ChildID   int  `json:"child_id"`
	TuitionID int  `json:"tuition_id"`
	Week      int  `json:"week"`
	Value     bool `json:"value"`
}

// PaidStatus replays a paid checkbox.
type PaidStatus struct {
	ChildID   int    `json:"child_id"`
	TuitionID int    `json:"tuition_id"`
	Paid      bool   `json:"paid"`
	Email     string `json:"email"`
}

// ReportEmail replays a monthly attendance report email.
type ReportEmail struct {
	To        []string `json:"to"`
	TuitionID int      `json:"tuition_id"`
	Title     string   `json:"title"`
	Year      int      `json:"year"`
	Month     int      `json:"month"`
}

// Key names the checkbox a week write sets.
func (w WeekReport) Key() string {
	return fmt.Sprintf("%s:%d:%d:%d", ActionWeekReport, w.ChildID, w.TuitionID, w.Week)
}

// Key names the checkbox a paid write sets.
func (p PaidStatus) Key() string {
	return fmt.Sprintf("%s:%d:%d", ActionPaidStatus, p.ChildID, p.TuitionID)
}

// WriteKey returns the checkbox key of a week or paid entry, "" for other
// actions. Entries with equal keys overwrite the same backend value.
func (e *Entry) WriteKey() string {
	switch e.ActionType {
	case ActionWeekReport:
		var w WeekReport
		if e.Decode(&w) == nil {
			return w.Key()
		}
	case ActionPaidStatus:
		var p PaidStatus
		if e.Decode(&p) == nil {
			return p.Key()
		}
	}
	return ""
}
