package report

import (
	"strconv"
	"time"
)

// Cell is the state of one week on the attendance sheet.
type Cell int

const (
	CellAbsent Cell = iota
	CellAttended
	CellNotEnrolled
)

// String returns the sheet symbol.
func (c Cell) String() string {
	switch c {
	case CellAttended:
		return "✓"
	case CellNotEnrolled:
		return "-"
	default:
		return "0"
	}
}

// HistoryCell decides what the sheet shows for a week. Students created after
// day 7*week of the month were not enrolled yet; day overflow rolls into the
// next month, so week 5 of a 30-day month cuts off on the 5th of the next one.
// PRE: week in [1, 5], month in [1, 12]
// POST: Returns CellNotEnrolled, CellAttended or CellAbsent
func HistoryCell(r Row, week, year int, month time.Month) Cell {
	loc := r.CreatedAt.Location()
	cutoff := time.Date(year, month, 7*week, 0, 0, 0, 0, loc)
	if r.CreatedAt.After(cutoff) {
		return CellNotEnrolled
	}
	if r.Week(week) {
		return CellAttended
	}
	return CellAbsent
}

// Sheet is a month of history rows prepared for export.
type Sheet struct {
	Title      string // grade title, e.g. "Grade 1 - B Spoken"
	MonthName  string
	Month      time.Month
	Year       int
	DayHeaders []string // one per week column, e.g. "Sat 06"
	Rows       []Row
}

// NewSheet builds the export sheet for a month, keeping only rows that
// belong on the history (see IncludeInHistory).
// PRE: month in [1, 12]
// POST: Rows is FilterHistory(rows)
func NewSheet(title string, year int, month time.Month, dayHeaders []string, rows []Row) Sheet {
	return Sheet{
		Title:      title,
		Month:      month,
		Year:       year,
		DayHeaders: dayHeaders,
		Rows:       FilterHistory(rows),
	}
}

// WeekCount is the number of week columns: one per day header, at most MaxWeeks.
func (s Sheet) WeekCount() int {
	n := len(s.DayHeaders)
	if n == 0 || n > MaxWeeks {
		return MaxWeeks
	}
	return n
}

// Heading is the centred title of an exported sheet: "<title> <month> - <year>".
func (s Sheet) Heading() string {
	return s.Title + " " + s.monthLabel() + " - " + strconv.Itoa(s.Year)
}

// Filename returns "<title>_Attendance_<month>_<year>.<ext>".
func (s Sheet) Filename(ext string) string {
	return s.Title + "_Attendance_" + strconv.Itoa(int(s.Month)) + "_" + strconv.Itoa(s.Year) + "." + ext
}

// Cells returns the week cells for one row.
func (s Sheet) Cells(r Row) []Cell {
	cells := make([]Cell, s.WeekCount())
	for i := range cells {
		cells[i] = HistoryCell(r, i+1, s.Year, s.Month)
	}
	return cells
}

func (s Sheet) monthLabel() string {
	if s.MonthName != "" {
		return s.MonthName
	}
	if s.Month >= time.January && s.Month <= time.December {
		return s.Month.String()
	}
	return "Unknown"
}
