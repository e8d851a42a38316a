package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVRenderer writes assignment sheets as RFC 4180 CSV. The title is not
// emitted; CSV consumers get the column header as the first record.
type CSVRenderer struct{}

// NewCSVRenderer builds a CSV renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render encodes the sheet.
func (r *CSVRenderer) Render(sheet Sheet) ([]byte, error) {
	if len(sheet.Columns) == 0 {
		return nil, fmt.Errorf("sheet has no columns")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(sheet.Columns); err != nil {
		return nil, fmt.Errorf("write sheet header: %w", err)
	}
	if err := w.WriteAll(sheet.Rows); err != nil {
		return nil, fmt.Errorf("write sheet rows: %w", err)
	}
	return buf.Bytes(), nil
}
