package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"tuition/internal/domain/report"
	"tuition/internal/domain/student"
)

// flexString accepts a JSON string or number; the backend is inconsistent about sno.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(b))
	return nil
}

// flexInt accepts a number, a numeric string or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(s))
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexBool accepts true/false, 0/1 and "0"/"1".
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	switch strings.ToLower(string(s)) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime reads the date formats the backend emits. Unparseable input yields the zero time.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// childDTO is one row of /fetch-student-data and /history.
type childDTO struct {
	ChildID    flexInt    `json:"child_id"`
	SNo        flexString `json:"sno"`
	ChildName  string     `json:"child_name"`
	GWhatsapp  string     `json:"gWhatsapp"`
	GWhatsapp2 string     `json:"gWhatsapp2"`
	Week1      flexBool   `json:"week1"`
	Week2      flexBool   `json:"week2"`
	Week3      flexBool   `json:"week3"`
	Week4      flexBool   `json:"week4"`
	Week5      flexBool   `json:"week5"`
	Paid       flexBool   `json:"paid"`
	NotPaid    flexBool   `json:"notpaid"`
	Status     flexBool   `json:"status"`
	CreatedAt  string     `json:"created_at"`
}

func (d childDTO) toRow() report.Row {
	return report.Row{
		ChildID:   int(d.ChildID),
		SNo:       string(d.SNo),
		Name:      d.ChildName,
		WhatsApp:  d.GWhatsapp,
		WhatsApp2: d.GWhatsapp2,
		Weeks:     [report.MaxWeeks]bool{bool(d.Week1), bool(d.Week2), bool(d.Week3), bool(d.Week4), bool(d.Week5)},
		Paid:      bool(d.Paid),
		NotPaid:   bool(d.NotPaid),
		Status:    bool(d.Status),
		CreatedAt: parseTime(d.CreatedAt),
	}
}

func toRows(ds []childDTO) []report.Row {
	rows := make([]report.Row, len(ds))
	for i, d := range ds {
		rows[i] = d.toRow()
	}
	return rows
}

// studentDTO is the wire form of the student form.
type studentDTO struct {
	ID         flexInt    `json:"id,omitempty"`
	SNo        flexString `json:"sno"`
	Name       string     `json:"name"`
	DOB        string     `json:"dob"`
	Address1   string     `json:"address1"`
	Address2   string     `json:"address2"`
	School     string     `json:"school"`
	GName      string     `json:"g_name"`
	GMobile    string     `json:"g_mobile"`
	GWhatsapp  string     `json:"g_whatsapp"`
	GWhatsapp2 string     `json:"g_whatsapp2"`
	Gender     string     `json:"gender"`
}

func (d studentDTO) toStudent() student.Student {
	s := student.Student{
		ID:             int(d.ID),
		SNo:            string(d.SNo),
		Name:           d.Name,
		DOB:            parseTime(d.DOB),
		Address1:       d.Address1,
		Address2:       d.Address2,
		School:         d.School,
		GuardianName:   d.GName,
		GuardianMobile: d.GMobile,
		WhatsApp:       d.GWhatsapp,
		WhatsApp2:      d.GWhatsapp2,
		Gender:         d.Gender,
	}
	if s.Gender == "" {
		s.Gender = student.GenderFemale
	}
	return s
}

// studentPayload is the body of POST /student and PUT /student/{id}.
type studentPayload struct {
	SNo        string `json:"sno"`
	Name       string `json:"name"`
	DOB        string `json:"dob,omitempty"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	School     string `json:"school"`
	Gender     string `json:"gender"`
	GName      string `json:"g_name"`
	GMobile    string `json:"g_mobile"`
	GWhatsapp  string `json:"g_whatsapp"`
	GWhatsapp2 string `json:"g_whatsapp2"`
	TuitionID  int    `json:"tuitionId"`
}

func newStudentPayload(s student.Student) studentPayload {
	p := studentPayload{
		SNo:        s.SNo,
		Name:       s.Name,
		Address1:   s.Address1,
		Address2:   s.Address2,
		School:     s.School,
		Gender:     s.Gender,
		GName:      s.GuardianName,
		GMobile:    s.GuardianMobile,
		GWhatsapp:  s.WhatsApp,
		GWhatsapp2: s.WhatsApp2,
		TuitionID:  s.TuitionID,
	}
	if !s.DOB.IsZero() {
		p.DOB = s.DOB.Format("2006-01-02")
	}
	return p
}

type messageResponse struct {
	Message string `json:"message"`
}
