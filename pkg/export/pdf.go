package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer lays assignment sheets out as a landscape A4 table; the wide
// page fits the full course/instructor column set on one line.
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

const printableWidth = 277.0

// Render builds the document: title banner, shaded header row, one table row
// per assignment line.
func (r *PDFRenderer) Render(sheet Sheet) ([]byte, error) {
	if len(sheet.Columns) == 0 {
		return nil, fmt.Errorf("sheet has no columns")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 9, sheet.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	widths := columnWidths(sheet, printableWidth)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, col := range sheet.Columns {
		pdf.CellFormat(widths[i], 7, col, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range sheet.Rows {
		for i := range sheet.Columns {
			var value string
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(widths[i], 6.5, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("emit pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths spreads the printable width by the longest value seen in each
// column, with a floor so narrow numeric columns stay readable.
func columnWidths(sheet Sheet, total float64) []float64 {
	longest := make([]int, len(sheet.Columns))
	for i, col := range sheet.Columns {
		longest[i] = len(col)
	}
	for _, row := range sheet.Rows {
		for i := 0; i < len(longest) && i < len(row); i++ {
			if len(row[i]) > longest[i] {
				longest[i] = len(row[i])
			}
		}
	}

	sum := 0
	for i := range longest {
		if longest[i] < 6 {
			longest[i] = 6
		}
		sum += longest[i]
	}

	widths := make([]float64, len(longest))
	for i, n := range longest {
		widths[i] = total * float64(n) / float64(sum)
	}
	return widths
}
