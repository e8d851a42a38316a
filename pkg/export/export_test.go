package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSheet() Sheet {
	sheet := Sheet{
		Title:   "Course Assignments 2026 Regular 1 (Regular)",
		Columns: []string{"Course Code", "Course Title", "Instructor", "Workload"},
	}
	sheet.AddRow("CS101", "Introduction to Computing", "A. Instructor", "5.00")
	sheet.AddRow("CS205", "Data Structures", "B. Instructor", "7.00")
	return sheet
}

func TestCSVRender(t *testing.T) {
	data, err := NewCSVRenderer().Render(sampleSheet())
	require.NoError(t, err)
	assert.Equal(t,
		"Course Code,Course Title,Instructor,Workload\n"+
			"CS101,Introduction to Computing,A. Instructor,5.00\n"+
			"CS205,Data Structures,B. Instructor,7.00\n",
		string(data))
}

func TestCSVRenderNoColumns(t *testing.T) {
	_, err := NewCSVRenderer().Render(Sheet{})
	require.Error(t, err)
}

func TestSheetAddRowPads(t *testing.T) {
	sheet := Sheet{Columns: []string{"A", "B", "C"}}
	sheet.AddRow("only")
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, []string{"only", "", ""}, sheet.Rows[0])
}

func TestPDFRender(t *testing.T) {
	data, err := NewPDFRenderer().Render(sampleSheet())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestColumnWidthsSumToTotal(t *testing.T) {
	widths := columnWidths(sampleSheet(), printableWidth)
	require.Len(t, widths, 4)
	var sum float64
	for _, w := range widths {
		assert.Greater(t, w, 0.0)
		sum += w
	}
	assert.InDelta(t, printableWidth, sum, 1e-6)
}
