package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"tuition/internal/domain/report"
)

const sheetName = "Attendance"

// WriteAttendanceXLSX writes the same table as WriteAttendancePDF to a
// single-sheet workbook: the heading merged across row 1, column titles in
// row 3 and one row per student from row 4.
// PRE: sheet rows are already filtered for history
// POST: w holds a complete XLSX workbook
func WriteAttendanceXLSX(w io.Writer, sheet report.Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headers := append([]string{"No", "Name"}, weekHeaders(sheet)...)
	lastCol, _ := excelize.ColumnNumberToName(len(headers))

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	headStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	nameStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return err
	}

	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheetName, cell, v)
	}

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, "A1", sheet.Heading()); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle); err != nil {
		return err
	}

	for i, h := range headers {
		if err := set(i+1, 3, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetName, "A3", lastCol+"3", headStyle); err != nil {
		return err
	}

	for i, r := range sheet.Rows {
		row := 4 + i
		if err := set(1, row, rowNumber(i)); err != nil {
			return err
		}
		if err := set(2, row, r.Name); err != nil {
			return err
		}
		for c, cell := range sheet.Cells(r) {
			if err := set(3+c, row, cell.String()); err != nil {
				return err
			}
		}
		rs := fmt.Sprint(row)
		if err := f.SetCellStyle(sheetName, "A"+rs, lastCol+rs, cellStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "B"+rs, "B"+rs, nameStyle); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 6); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "B", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "C", lastCol, 12); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
