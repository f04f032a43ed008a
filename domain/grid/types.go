package grid

// CellHint carries the source format hint for a raw cell, when the reader knows it.
type CellHint int

const (
	HintUnknown CellHint = iota
	HintText
	HintNumber
	HintDate
	HintBool
)

// RawGrid is the immutable 2-D cell matrix read from one sheet.
// Rows are jagged in the source; the reader squares them to ColumnCount.
type RawGrid struct {
	Cells [][]string
	Hints [][]CellHint
}

// RowCount returns the number of rows in the grid
func (g *RawGrid) RowCount() int {
	return len(g.Cells)
}

// ColumnCount returns the width of the grid (all rows are squared to this)
func (g *RawGrid) ColumnCount() int {
	if len(g.Cells) == 0 {
		return 0
	}
	return len(g.Cells[0])
}

// Cell returns the raw value at (row, col), empty string when out of range
func (g *RawGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g.Cells) {
		return ""
	}
	if col < 0 || col >= len(g.Cells[row]) {
		return ""
	}
	return g.Cells[row][col]
}

// Column collects the values of one column across the given row range
func (g *RawGrid) Column(col, firstRow int) []string {
	var out []string
	for r := firstRow; r < len(g.Cells); r++ {
		out = append(out, g.Cell(r, col))
	}
	return out
}

// MergedRegion is a merged-cell rectangle, all bounds inclusive and zero-based.
type MergedRegion struct {
	FirstRow int
	LastRow  int
	FirstCol int
	LastCol  int
}

// SpansRows reports whether the region covers more than one row
func (m MergedRegion) SpansRows() bool {
	return m.LastRow > m.FirstRow
}

// SpansColumns reports whether the region covers more than one column
func (m MergedRegion) SpansColumns() bool {
	return m.LastCol > m.FirstCol
}

// HeaderLayout is the detected header structure of one sheet.
// Built once per sheet and never mutated afterwards.
type HeaderLayout struct {
	HeaderRowCount int
	MultiRow       bool
	MergedRegions  []MergedRegion
	MergedHeaders  []string
}

// Orientation describes how a table lays out its observations.
type Orientation string

const (
	// RowOriented: one observation per row (long format)
	RowOriented Orientation = "ROW_ORIENTED"
	// ColumnOriented: observations spread across period columns (wide format)
	ColumnOriented Orientation = "COLUMN_ORIENTED"
	// OrientationUnknown: heuristics inconclusive, no transpose applied
	OrientationUnknown Orientation = "UNKNOWN"
)

// Table is a header row plus data rows, the unit the pipeline classifies.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ColumnValues collects the values under one header index
func (t *Table) ColumnValues(col int) []string {
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if col < len(row) {
			out = append(out, row[col])
		} else {
			out = append(out, "")
		}
	}
	return out
}
