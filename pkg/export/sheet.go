package export

// Sheet is the printable view of one allocation record: a fixed column set
// and one row per assignment line, in record order.
type Sheet struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// AddRow appends a row, padding or truncating it to the column count so the
// renderers never index past a short row.
func (s *Sheet) AddRow(values ...string) {
	row := make([]string, len(s.Columns))
	copy(row, values)
	s.Rows = append(s.Rows, row)
}
