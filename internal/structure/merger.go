package structure

import (
	"fmt"
	"strings"

	"sheetwise/domain/grid"
	"sheetwise/internal/coerce"
)

// MergeHeaders collapses the header rows of a sheet into one normalized name
// per column. Merged regions are filled from their top-left cell first, then
// each column forward-fills remaining gaps downward, and the final name joins
// the distinct non-empty values top to bottom with "_". A column that stays
// empty gets a positional placeholder.
func MergeHeaders(g *grid.RawGrid, layout grid.HeaderLayout) []string {
	rows := layout.HeaderRowCount
	cols := g.ColumnCount()
	if rows < 1 || cols == 0 {
		return nil
	}

	matrix := make([][]string, rows)
	for r := 0; r < rows; r++ {
		matrix[r] = make([]string, cols)
		for c := 0; c < cols; c++ {
			matrix[r][c] = strings.TrimSpace(g.Cell(r, c))
		}
	}

	// Merged regions: propagate the top-left value across the whole block
	for _, region := range layout.MergedRegions {
		if region.FirstRow >= rows {
			continue
		}
		value := matrix[region.FirstRow][clampCol(region.FirstCol, cols)]
		for r := region.FirstRow; r <= region.LastRow && r < rows; r++ {
			for c := region.FirstCol; c <= region.LastCol && c < cols; c++ {
				matrix[r][c] = value
			}
		}
	}

	// Forward-fill empties downward, independently per column
	for c := 0; c < cols; c++ {
		last := ""
		for r := 0; r < rows; r++ {
			if matrix[r][c] == "" {
				matrix[r][c] = last
			} else {
				last = matrix[r][c]
			}
		}
	}

	names := make([]string, cols)
	for c := 0; c < cols; c++ {
		var parts []string
		seen := make(map[string]bool)
		for r := 0; r < rows; r++ {
			v := matrix[r][c]
			if v == "" || coerce.IsBlank(v) || seen[v] {
				continue
			}
			seen[v] = true
			parts = append(parts, v)
		}
		if len(parts) == 0 {
			names[c] = fmt.Sprintf("column_%d", c+1)
		} else {
			names[c] = strings.Join(parts, "_")
		}
	}
	return names
}

func clampCol(c, cols int) int {
	if c < 0 {
		return 0
	}
	if c >= cols {
		return cols - 1
	}
	return c
}
