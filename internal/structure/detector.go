// Package structure detects multi-row header layouts and collapses them
// into single normalized column names.
package structure

import (
	"log"

	"sheetwise/domain/grid"
	"sheetwise/internal/coerce"
)

// Detector infers the header layout of one sheet from its raw grid and
// merged-cell regions.
type Detector struct {
	// MaxHeaderRowsHint bounds the merged-region scan: only regions whose
	// first row falls above this line are considered header structure.
	MaxHeaderRowsHint int
}

// NewDetector creates a detector with the given scan bound
func NewDetector(maxHeaderRowsHint int) *Detector {
	if maxHeaderRowsHint < 1 {
		maxHeaderRowsHint = 1
	}
	return &Detector{MaxHeaderRowsHint: maxHeaderRowsHint}
}

// Detect builds the HeaderLayout for a sheet. overrideHeaderRows, when larger
// than the detected count, wins and the merger is re-run with it.
func (d *Detector) Detect(g *grid.RawGrid, regions []grid.MergedRegion, overrideHeaderRows int) grid.HeaderLayout {
	headerRegions := d.headerRegions(regions)
	textOnly := d.textOnlyRowCount(g)

	multiRow := false
	for _, r := range headerRegions {
		if r.SpansRows() {
			multiRow = true
			break
		}
		if r.SpansColumns() && textOnly > 1 {
			multiRow = true
			break
		}
	}

	headerRows := 1
	if multiRow {
		headerRows = textOnly
		if headerRows < 2 {
			headerRows = 2
		}
	}
	if overrideHeaderRows > headerRows {
		headerRows = overrideHeaderRows
		multiRow = headerRows > 1
	}
	if headerRows > g.RowCount() {
		headerRows = g.RowCount()
	}

	layout := grid.HeaderLayout{
		HeaderRowCount: headerRows,
		MultiRow:       multiRow,
		MergedRegions:  headerRegions,
	}
	layout.MergedHeaders = MergeHeaders(g, layout)

	log.Printf("[StructureDetector] headerRows=%d multiRow=%v mergedRegions=%d textOnlyRows=%d",
		headerRows, multiRow, len(headerRegions), textOnly)
	return layout
}

// headerRegions keeps merged regions that begin above the scan bound
func (d *Detector) headerRegions(regions []grid.MergedRegion) []grid.MergedRegion {
	var out []grid.MergedRegion
	for _, r := range regions {
		if r.FirstRow < d.MaxHeaderRowsHint {
			out = append(out, r)
		}
	}
	return out
}

// textOnlyRowCount walks rows from the top and stops at the first row whose
// non-empty cells are mostly numeric; that row is the first data row. Rows
// scanned before stopping count toward the result, minimum 1.
func (d *Detector) textOnlyRowCount(g *grid.RawGrid) int {
	count := 0
	for row := 0; row < g.RowCount(); row++ {
		nonEmpty := 0
		numeric := 0
		for col := 0; col < g.ColumnCount(); col++ {
			cell := g.Cell(row, col)
			if coerce.IsBlank(cell) {
				continue
			}
			nonEmpty++
			if coerce.IsNumeric(cell) {
				numeric++
			}
		}
		if nonEmpty > 0 && float64(numeric)/float64(nonEmpty) > 0.5 {
			break
		}
		count++
	}
	if count < 1 {
		count = 1
	}
	return count
}
