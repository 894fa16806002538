package projections

import (
	"context"
	"errors"
	"testing"

	"tuition/internal/adapters/backend"
	"tuition/internal/domain/report"
)

func TestQueryHistoryOptions(t *testing.T) {
	be := &mockBackend{grades: []backend.GradeOption{{ID: 20, Grade: "Grade 1b Spoken", DayID: 6}}}
	opts, err := QueryHistoryOptions(context.Background(), "E", HistoryDeps{Backend: be})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.Years) != 2 || len(opts.Months) != 2 || len(opts.Grades) != 1 {
		t.Errorf("opts = %+v", opts)
	}
}

func TestQueryHistorySheet(t *testing.T) {
	be := &mockBackend{history: backend.History{
		DayHeaders: []string{"Sat 07", "Sat 14", "Sat 21", "Sat 28"},
		Rows:       historyRows(),
	}}
	sheet, err := QueryHistorySheet(context.Background(), HistoryInput{TuitionID: 20, Year: 2026, Month: 2, Title: "Grade 1b Spoken"}, HistoryDeps{Backend: be})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Left Early is inactive, unpaid and attended no weeks.
	if len(sheet.Rows) != 2 {
		t.Fatalf("rows = %+v", sheet.Rows)
	}
	if sheet.Segment != "s1b" {
		t.Errorf("Segment = %q, want s1b", sheet.Segment)
	}
	if got := sheet.Heading(); got != "Grade 1b Spoken February - 2026" {
		t.Errorf("Heading = %q", got)
	}

	want := [][]report.Cell{
		{report.CellAttended, report.CellAttended, report.CellAbsent, report.CellAttended},
		{report.CellNotEnrolled, report.CellAbsent, report.CellAttended, report.CellAbsent},
	}
	for i := range want {
		if len(sheet.WeekCells[i]) != len(want[i]) {
			t.Fatalf("row %d cells = %v", i, sheet.WeekCells[i])
		}
		for w := range want[i] {
			if sheet.WeekCells[i][w] != want[i][w] {
				t.Errorf("row %d week %d = %v, want %v", i, w+1, sheet.WeekCells[i][w], want[i][w])
			}
		}
	}
}

func TestQueryHistorySheet_UnencodableTitle(t *testing.T) {
	be := &mockBackend{history: backend.History{Rows: historyRows()}}
	sheet, err := QueryHistorySheet(context.Background(), HistoryInput{TuitionID: 20, Year: 2026, Month: 2, Title: "Holiday Camp"}, HistoryDeps{Backend: be})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sheet.Segment != "" {
		t.Errorf("Segment = %q, want empty", sheet.Segment)
	}
	if sheet.WeekCount() != report.MaxWeeks {
		t.Errorf("WeekCount = %d", sheet.WeekCount())
	}
}

func TestQueryHistorySheet_Validation(t *testing.T) {
	be := &mockBackend{}
	tests := []struct {
		name  string
		input HistoryInput
		want  error
	}{
		{"no tuition", HistoryInput{Year: 2026, Month: 2}, report.ErrEmptyTuitionID},
		{"month zero", HistoryInput{TuitionID: 1, Year: 2026}, ErrInvalidMonth},
		{"month 13", HistoryInput{TuitionID: 1, Year: 2026, Month: 13}, ErrInvalidMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := QueryHistorySheet(context.Background(), tt.input, HistoryDeps{Backend: be}); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if be.called("History") {
		t.Error("backend should not be called for invalid input")
	}
}
