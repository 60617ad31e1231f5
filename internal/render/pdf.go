package render

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin  = 15.0
	rowHeight   = 7.0
	titleHeight = 10.0
	fontFamily  = "Helvetica"
)

// PDF writes tables under a document heading as an A4 PDF.
func PDF(w io.Writer, heading string, tables []Table) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(heading, true)
	pdf.SetCreator("lunchreports", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, titleHeight, tr(heading), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 2*pageMargin

	for _, t := range tables {
		writeTable(pdf, tr, t, usable)
		pdf.Ln(4)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, t Table, usable float64) {
	if t.Title != "" {
		pdf.SetFont(fontFamily, "B", 12)
		pdf.CellFormat(0, rowHeight+1, tr(t.Title), "", 1, "L", false, 0, "")
	}

	widths := columnWidths(len(t.Header), usable)

	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, h := range t.Header {
		pdf.CellFormat(widths[i], rowHeight, tr(h), "1", 0, align(i), true, 0, "")
	}
	pdf.Ln(-1)

	for _, row := range t.Rows {
		fill := false
		switch row.Kind {
		case RowGroup:
			pdf.SetFont(fontFamily, "B", 10)
			pdf.SetFillColor(235, 235, 235)
			fill = true
		case RowTotal:
			pdf.SetFont(fontFamily, "B", 10)
			pdf.SetFillColor(215, 215, 215)
			fill = true
		default:
			pdf.SetFont(fontFamily, "", 10)
		}
		for i, cell := range row.Cells {
			if i >= len(widths) {
				break
			}
			pdf.CellFormat(widths[i], rowHeight, tr(cell), "1", 0, align(i), fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

// columnWidths gives the two name columns more room than quantity columns.
func columnWidths(n int, usable float64) []float64 {
	widths := make([]float64, n)
	if n == 0 {
		return widths
	}
	if n <= 2 {
		for i := range widths {
			widths[i] = usable / float64(n)
		}
		return widths
	}
	nameWidth := usable * 0.25
	if n > 6 {
		nameWidth = usable * 0.18
	}
	rest := (usable - 2*nameWidth) / float64(n-2)
	widths[0], widths[1] = nameWidth, nameWidth
	for i := 2; i < n; i++ {
		widths[i] = rest
	}
	return widths
}

func align(col int) string {
	if col < 2 {
		return "L"
	}
	return "R"
}
