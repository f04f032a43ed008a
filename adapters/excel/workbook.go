// Package excel adapts xlsx workbooks to the core's workbook port using
// excelize. Workbooks open from an in-memory byte slice so the same bytes
// can be re-read for structure detection, parsing, and retry.
package excel

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetwise/domain/grid"
	"sheetwise/internal/errors"
	"sheetwise/ports"
)

// Opener opens workbooks from raw bytes.
type Opener struct{}

// NewOpener creates a workbook opener
func NewOpener() *Opener {
	return &Opener{}
}

// Open parses the workbook bytes. The bytes are retained by excelize, so
// callers may reuse or discard their slice afterwards.
func (o *Opener) Open(data []byte) (ports.Workbook, error) {
	if len(data) == 0 {
		return nil, errors.WorkbookInvalid("empty workbook bytes")
	}

	start := time.Now()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open workbook bytes")
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, errors.WorkbookInvalid("workbook contains no sheets")
	}

	log.Printf("[Workbook] opened %d sheet(s) in %.2fms", len(sheets),
		float64(time.Since(start).Nanoseconds())/1e6)
	return &Workbook{file: f, sheets: sheets}, nil
}

// Workbook is an open excelize workbook.
type Workbook struct {
	file   *excelize.File
	sheets []string
}

// SheetNames lists sheets in workbook order
func (w *Workbook) SheetNames() []string {
	return append([]string(nil), w.sheets...)
}

// Close releases the underlying file
func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) sheetName(index int) (string, error) {
	if index < 0 || index >= len(w.sheets) {
		return "", fmt.Errorf("sheet index %d out of range (%d sheets)", index, len(w.sheets))
	}
	return w.sheets[index], nil
}

// ReadGrid reads the full cell matrix of one sheet, squared to the widest
// row, with excelize's native cell types recorded as hints.
func (w *Workbook) ReadGrid(sheetIndex int) (*grid.RawGrid, error) {
	name, err := w.sheetName(sheetIndex)
	if err != nil {
		return nil, err
	}

	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", name)
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	cells := make([][]string, len(rows))
	hints := make([][]grid.CellHint, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, width)
		hints[r] = make([]grid.CellHint, width)
		copy(cells[r], row)
		for c := range row {
			if row[c] == "" {
				continue
			}
			hints[r][c] = w.cellHint(name, r, c)
		}
	}

	return &grid.RawGrid{Cells: cells, Hints: hints}, nil
}

// cellHint maps excelize's native cell type for one cell
func (w *Workbook) cellHint(sheet string, row, col int) grid.CellHint {
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return grid.HintUnknown
	}
	cellType, err := w.file.GetCellType(sheet, ref)
	if err != nil {
		return grid.HintUnknown
	}
	switch cellType {
	case excelize.CellTypeNumber:
		return grid.HintNumber
	case excelize.CellTypeDate:
		return grid.HintDate
	case excelize.CellTypeBool:
		return grid.HintBool
	case excelize.CellTypeInlineString, excelize.CellTypeSharedString:
		return grid.HintText
	}
	return grid.HintUnknown
}

// MergedRegions lists merged-cell rectangles of one sheet, zero-based
func (w *Workbook) MergedRegions(sheetIndex int) ([]grid.MergedRegion, error) {
	name, err := w.sheetName(sheetIndex)
	if err != nil {
		return nil, err
	}

	merges, err := w.file.GetMergeCells(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read merged cells of %q", name)
	}

	regions := make([]grid.MergedRegion, 0, len(merges))
	for _, m := range merges {
		startCol, startRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			continue
		}
		regions = append(regions, grid.MergedRegion{
			FirstRow: startRow - 1,
			LastRow:  endRow - 1,
			FirstCol: startCol - 1,
			LastCol:  endCol - 1,
		})
	}
	return regions, nil
}
