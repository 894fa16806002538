// Package export renders a month of attendance history as PDF or XLSX.
package export

import (
	"fmt"

	"tuition/internal/domain/report"
)

// Format is an export file type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "pdf" or "xlsx".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPDF, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// rowNumber is the zero-padded serial shown in the first column.
func rowNumber(i int) string {
	return fmt.Sprintf("%02d", i+1)
}

// weekHeaders returns the column titles for the sheet's week columns.
func weekHeaders(s report.Sheet) []string {
	n := s.WeekCount()
	headers := make([]string, n)
	for i := range headers {
		if i < len(s.DayHeaders) {
			headers[i] = s.DayHeaders[i]
		} else {
			headers[i] = fmt.Sprintf("Week %d", i+1)
		}
	}
	return headers
}
