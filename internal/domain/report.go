package domain

import "strings"

// ReportFormat is a supported export format.
type ReportFormat string

const (
	ReportExcel ReportFormat = "excel"
	ReportPDF   ReportFormat = "pdf"
)

// ParseReportFormat accepts excel or pdf in any case.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ReportExcel, ReportPDF:
		return f, nil
	default:
		return "", ErrInvalidReportFormat
	}
}

// Extension returns the file extension for the format.
func (f ReportFormat) Extension() string {
	if f == ReportPDF {
		return ".pdf"
	}
	return ".xlsx"
}

// Report is a rendered-agnostic table of already enriched records.
type Report struct {
	Name    string // file name stem, e.g. "deals"
	Title   string
	Columns []string
	Rows    [][]string
}
