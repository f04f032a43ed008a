package orient

import (
	"log"
	"strings"

	"sheetwise/domain/grid"
	"sheetwise/internal/coerce"
)

// Long-format header names produced by the pivot.
const (
	PeriodColumn = "period"
	ItemColumn   = "item"
	ValueColumn  = "value"
)

// Transposer pivots a column-oriented (wide) table into row-oriented (long)
// form. The pivot preserves values: every non-null wide cell maps to exactly
// one long cell and the original table can be reconstructed by grouping the
// long rows on (item, period).
type Transposer struct {
	// RowLabelColumnIndex is the column holding entity labels, normally 0.
	RowLabelColumnIndex int
}

// NewTransposer creates a transposer with the default label column
func NewTransposer() *Transposer {
	return &Transposer{RowLabelColumnIndex: 0}
}

// periodKey is one wide column parsed as (period, subType) on the first "_".
type periodKey struct {
	period  string
	subType string
}

// Transpose pivots the table. Rows whose label cell is empty are skipped.
func (t *Transposer) Transpose(table *grid.Table) *grid.Table {
	keys := make(map[int]periodKey)
	var periods []string
	seenPeriod := make(map[string]bool)
	var subTypes []string
	seenSub := make(map[string]bool)

	for i, h := range table.Headers {
		if i == t.RowLabelColumnIndex {
			continue
		}
		key := splitHeader(h)
		keys[i] = key
		if !seenPeriod[key.period] {
			seenPeriod[key.period] = true
			periods = append(periods, key.period)
		}
		if key.subType != "" && !seenSub[key.subType] {
			seenSub[key.subType] = true
			subTypes = append(subTypes, key.subType)
		}
	}

	headers := []string{PeriodColumn, ItemColumn}
	if len(subTypes) == 0 {
		headers = append(headers, ValueColumn)
	} else {
		headers = append(headers, subTypes...)
	}

	// Column lookup by (period, subType); a positional join would misassign
	// values whenever subtypes repeat across periods.
	colFor := make(map[periodKey]int)
	for i, key := range keys {
		colFor[key] = i
	}

	var rows [][]string
	for _, in := range table.Rows {
		label := ""
		if t.RowLabelColumnIndex < len(in) {
			label = strings.TrimSpace(in[t.RowLabelColumnIndex])
		}
		if coerce.IsBlank(label) {
			continue
		}
		for _, period := range periods {
			out := []string{period, label}
			if len(subTypes) == 0 {
				col, ok := colFor[periodKey{period: period}]
				if !ok {
					col = -1
				}
				out = append(out, cellAt(in, col))
			} else {
				for _, sub := range subTypes {
					col, ok := colFor[periodKey{period: period, subType: sub}]
					if !ok {
						out = append(out, "")
						continue
					}
					out = append(out, cellAt(in, col))
				}
			}
			rows = append(rows, out)
		}
	}

	log.Printf("[Transposer] pivoted %dx%d wide into %d long rows (%d periods, %d subtypes)",
		len(table.Rows), len(table.Headers), len(rows), len(periods), len(subTypes))
	return &grid.Table{Headers: headers, Rows: rows}
}

// splitHeader parses "2025年1月_预算数" into period and subtype on the
// first underscore; headers without one are pure periods.
func splitHeader(h string) periodKey {
	h = strings.TrimSpace(h)
	if idx := strings.Index(h, "_"); idx >= 0 {
		return periodKey{period: h[:idx], subType: h[idx+1:]}
	}
	return periodKey{period: h}
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
