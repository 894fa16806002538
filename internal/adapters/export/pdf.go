package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"tuition/internal/domain/report"
)

// Page geometry in millimetres, A4 portrait.
const (
	pageFrame    = 7.0
	titleY       = 30.0
	tableY       = 40.0
	tableMargin  = 30.0
	rowHeight    = 8.0
	numberWidth  = 12.0
	weekMaxWidth = 22.0
	bottomLimit  = 20.0
)

// WriteAttendancePDF writes the sheet as a framed A4 page: the centred
// heading, then a grid with a serial number, the student name and one column
// per week. Attended weeks get a drawn check mark, absences "0" and weeks
// before enrolment "-". Long sheets continue on further pages.
// PRE: sheet rows are already filtered for history
// POST: w holds a complete PDF document
func WriteAttendancePDF(w io.Writer, sheet report.Sheet) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	headers := weekHeaders(sheet)
	tableW := pageW - 2*tableMargin
	weekW := min(weekMaxWidth, (tableW-numberWidth)/float64(len(headers)+2))
	nameW := tableW - numberWidth - weekW*float64(len(headers))

	newPage := func() {
		pdf.AddPage()
		pdf.SetLineWidth(0.2)
		pdf.Rect(pageFrame, pageFrame, pageW-2*pageFrame, pageH-2*pageFrame, "D")
	}
	headerRow := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetX(tableMargin)
		pdf.CellFormat(numberWidth, rowHeight, "", "1", 0, "C", false, 0, "")
		pdf.CellFormat(nameW, rowHeight, "Name", "1", 0, "C", false, 0, "")
		for _, h := range headers {
			pdf.CellFormat(weekW, rowHeight, tr(h), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(rowHeight)
		pdf.SetFont("Helvetica", "", 10)
	}

	newPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(pageFrame, titleY-5)
	pdf.CellFormat(pageW-2*pageFrame, 10, tr(sheet.Heading()), "", 0, "C", false, 0, "")
	pdf.SetY(tableY)
	headerRow()

	for i, r := range sheet.Rows {
		if pdf.GetY()+rowHeight > pageH-bottomLimit {
			newPage()
			pdf.SetY(tableY - 20)
			headerRow()
		}
		y := pdf.GetY()
		pdf.SetX(tableMargin)
		pdf.CellFormat(numberWidth, rowHeight, rowNumber(i), "1", 0, "C", false, 0, "")
		pdf.CellFormat(nameW, rowHeight, " "+tr(r.Name), "1", 0, "L", false, 0, "")
		for c, cell := range sheet.Cells(r) {
			text := cell.String()
			if cell == report.CellAttended {
				text = ""
			}
			pdf.CellFormat(weekW, rowHeight, text, "1", 0, "C", false, 0, "")
			if cell == report.CellAttended {
				x := tableMargin + numberWidth + nameW + weekW*float64(c)
				drawCheck(pdf, x+weekW/2, y+rowHeight/2)
			}
		}
		pdf.Ln(rowHeight)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// drawCheck strokes a small tick centred on (cx, cy).
func drawCheck(pdf *fpdf.Fpdf, cx, cy float64) {
	pdf.SetLineWidth(0.5)
	pdf.Line(cx-2, cy, cx-0.6, cy+1.6)
	pdf.Line(cx-0.6, cy+1.6, cx+2.2, cy-1.8)
	pdf.SetLineWidth(0.2)
}
