package report

import (
	"github.com/go-pdf/fpdf"

	"github.com/iho/cashdesk/internal/domain"
)

const (
	pdfMargin     = 10.0
	pdfLineHeight = 6.0
)

func writePDF(path string, r domain.Report) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	if r.Title != "" {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, r.Title, "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	width := columnWidth(pdf, len(r.Columns))

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range r.Columns {
		pdf.CellFormat(width, pdfLineHeight, c, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, row := range r.Rows {
		for i := range r.Columns {
			var v string
			if i < len(row) {
				v = tr(row[i])
			}
			pdf.CellFormat(width, pdfLineHeight, fit(pdf, v, width), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.OutputFileAndClose(path)
}

func columnWidth(pdf *fpdf.Fpdf, n int) float64 {
	if n == 0 {
		return 0
	}
	pageW, _ := pdf.GetPageSize()
	return (pageW - 2*pdfMargin) / float64(n)
}

// fit truncates s so it prints inside one cell.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
