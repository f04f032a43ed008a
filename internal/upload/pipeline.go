// Package upload composes the per-sheet inference pipeline and fans it out
// across a workbook's sheets with bounded concurrency.
package upload

import (
	"context"
	"log"

	"sheetwise/domain/batch"
	"sheetwise/domain/core"
	"sheetwise/domain/grid"
	mappingsvc "sheetwise/internal/mapping"
	"sheetwise/internal/orient"
	profilesvc "sheetwise/internal/profile"
	"sheetwise/internal/structure"
)

// Pipeline runs one sheet through parse -> classify -> map.
// Safe for concurrent use; per-sheet state lives on the stack.
type Pipeline struct {
	detector   *structure.Detector
	classifier *orient.Classifier
	transposer *orient.Transposer
	profiler   *profilesvc.Profiler
	mapper     *mappingsvc.Mapper
}

// NewPipeline wires the sheet pipeline
func NewPipeline(detector *structure.Detector, mapper *mappingsvc.Mapper) *Pipeline {
	return &Pipeline{
		detector:   detector,
		classifier: orient.NewClassifier(),
		transposer: orient.NewTransposer(),
		profiler:   profilesvc.NewProfiler(),
		mapper:     mapper,
	}
}

// Workbook is the slice of the workbook port the pipeline reads.
type Workbook interface {
	ReadGrid(sheetIndex int) (*grid.RawGrid, error)
	MergedRegions(sheetIndex int) ([]grid.MergedRegion, error)
}

// Run processes one sheet. overrideHeaderRows > detected wins. onPhase, when
// non-nil, is invoked as the sheet moves from parsing into mapping.
func (p *Pipeline) Run(ctx context.Context, wb Workbook, sheetIndex int, sheetName string, overrideHeaderRows int, onPhase func(batch.TaskState)) (*batch.SheetResult, error) {
	g, err := wb.ReadGrid(sheetIndex)
	if err != nil {
		return nil, err
	}
	if g.RowCount() == 0 {
		return nil, core.ErrEmptySheet
	}

	regions, err := wb.MergedRegions(sheetIndex)
	if err != nil {
		return nil, err
	}

	layout := p.detector.Detect(g, regions, overrideHeaderRows)

	table := &grid.Table{
		Headers: layout.MergedHeaders,
		Rows:    g.Cells[minInt(layout.HeaderRowCount, g.RowCount()):],
	}

	decision := p.classifier.Classify(table)
	transposed := false
	if decision.Orientation == grid.ColumnOriented {
		table = p.transposer.Transpose(table)
		transposed = true
	}

	if onPhase != nil {
		onPhase(batch.StateMapping)
	}

	result := &batch.SheetResult{
		SheetIndex:  sheetIndex,
		SheetName:   sheetName,
		Layout:      layout,
		Orientation: decision.Orientation,
		Transposed:  transposed,
		Table:       *table,
	}

	for i, name := range table.Headers {
		result.Profiles = append(result.Profiles, p.profiler.Profile(name, table.ColumnValues(i)))
	}

	mappings, err := p.mapper.Map(ctx, result.Profiles)
	if err != nil {
		return nil, err
	}
	result.Mappings = mappings

	mapped := 0
	for i := range mappings {
		if mappings[i].Mapped() {
			mapped++
		}
	}
	log.Printf("[SheetPipeline] sheet %q: %d columns (%d mapped), orientation=%s transposed=%v",
		sheetName, len(table.Headers), mapped, decision.Orientation, transposed)
	return result, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
