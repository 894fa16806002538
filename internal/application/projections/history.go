package projections

import (
	"context"
	"errors"
	"time"

	"tuition/internal/adapters/backend"
	"tuition/internal/domain/report"
	"tuition/internal/domain/routecodec"
)

var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// HistoryOptions feeds the year, month and grade pickers of the history page.
type HistoryOptions struct {
	Years  []backend.Year
	Months []backend.Month
	Grades []backend.GradeOption
}

// HistoryDeps holds dependencies for the history projections.
type HistoryDeps struct {
	Backend HistoryReader
}

// QueryHistoryOptions loads the pickers of the history page.
// PRE: class is a selected class code
// POST: Returns the three lists in backend order
func QueryHistoryOptions(ctx context.Context, class string, deps HistoryDeps) (HistoryOptions, error) {
	years, err := deps.Backend.Years(ctx)
	if err != nil {
		return HistoryOptions{}, err
	}
	months, err := deps.Backend.Months(ctx)
	if err != nil {
		return HistoryOptions{}, err
	}
	grades, err := deps.Backend.Grades(ctx, class)
	if err != nil {
		return HistoryOptions{}, err
	}
	return HistoryOptions{Years: years, Months: months, Grades: grades}, nil
}

// HistoryInput selects a month of one tuition.
type HistoryInput struct {
	TuitionID int
	Year      int
	Month     int
	Title     string // grade title as shown in the picker
}

// HistorySheet is a month of history ready to render or export.
type HistorySheet struct {
	report.Sheet
	Segment   string // grade page of the tuition, empty when the title does not encode
	WeekCells [][]report.Cell
}

// QueryHistorySheet loads a month and applies the history filter.
// PRE: TuitionID > 0; Month in [1, 12]
// POST: WeekCells[i] holds the week cells of Sheet.Rows[i]
func QueryHistorySheet(ctx context.Context, input HistoryInput, deps HistoryDeps) (HistorySheet, error) {
	if input.TuitionID <= 0 {
		return HistorySheet{}, report.ErrEmptyTuitionID
	}
	if input.Month < 1 || input.Month > 12 {
		return HistorySheet{}, ErrInvalidMonth
	}
	h, err := deps.Backend.History(ctx, input.TuitionID, input.Year, input.Month)
	if err != nil {
		return HistorySheet{}, err
	}

	sheet := report.NewSheet(input.Title, input.Year, time.Month(input.Month), h.DayHeaders, h.Rows)
	out := HistorySheet{Sheet: sheet, WeekCells: make([][]report.Cell, len(sheet.Rows))}
	for i, r := range sheet.Rows {
		out.WeekCells[i] = sheet.Cells(r)
	}
	if seg, err := routecodec.EncodeTitle(input.Title); err == nil {
		out.Segment = seg
	}
	return out, nil
}
