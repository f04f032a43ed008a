package ports

import (
	"sheetwise/domain/grid"
)

// Workbook is an open spreadsheet backed by a re-readable byte buffer.
// The core re-reads sheets during structure detection, parsing, and retry,
// so implementations must not consume a single-use stream.
type Workbook interface {
	// SheetNames lists sheets in workbook order
	SheetNames() []string

	// ReadGrid reads the full cell matrix of one sheet by index
	ReadGrid(sheetIndex int) (*grid.RawGrid, error)

	// MergedRegions lists merged-cell rectangles of one sheet by index
	MergedRegions(sheetIndex int) ([]grid.MergedRegion, error)

	// Close releases the underlying file handles
	Close() error
}

// WorkbookOpener opens workbooks from raw bytes.
type WorkbookOpener interface {
	Open(data []byte) (Workbook, error)
}
