package upload

import (
	"context"
	"testing"

	"sheetwise/domain/grid"
	mappingsvc "sheetwise/internal/mapping"
	"sheetwise/internal/structure"
	"sheetwise/internal/testkit"
)

func newTestPipeline() *Pipeline {
	dict := mappingsvc.NewCachedDictionary(mappingsvc.NewStaticDictionary())
	mapper := mappingsvc.NewMapper(dict, &testkit.StubClassifier{})
	return NewPipeline(structure.NewDetector(5), mapper)
}

// TestPipelineRowOrientedSheet tests the straight-through long-format path
func TestPipelineRowOrientedSheet(t *testing.T) {
	wb := &testkit.GridWorkbook{Sheets: []testkit.GridSheet{{
		Name: "明细",
		Cells: [][]string{
			{"日期", "区域", "金额"},
			{"2024-01-01", "华东", "1200"},
			{"2024-01-02", "华北", "800"},
		},
	}}}

	result, err := newTestPipeline().Run(context.Background(), wb, 0, "明细", 0, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Transposed {
		t.Error("row-oriented sheet must not be transposed")
	}
	if result.Orientation != grid.RowOriented {
		t.Errorf("orientation = %s, expected ROW_ORIENTED", result.Orientation)
	}
	if len(result.Profiles) != 3 || len(result.Mappings) != 3 {
		t.Fatalf("profiles/mappings = %d/%d, expected 3/3", len(result.Profiles), len(result.Mappings))
	}
	if len(result.Table.Rows) != 2 {
		t.Errorf("data rows = %d, expected 2", len(result.Table.Rows))
	}
}

// TestPipelineWideBudgetSheet tests the full merged-header, transpose path
// on a budget-style sheet
func TestPipelineWideBudgetSheet(t *testing.T) {
	wb := &testkit.GridWorkbook{Sheets: []testkit.GridSheet{{
		Name: "预算",
		Cells: [][]string{
			{"项目", "2025年1月", "", "2025年2月", ""},
			{"", "预算数", "实际数", "预算数", "实际数"},
			{"营业收入", "100", "98", "110", "105"},
			{"营业成本", "60", "61", "65", "64"},
		},
		Merges: []grid.MergedRegion{
			{FirstRow: 0, LastRow: 1, FirstCol: 0, LastCol: 0},
			{FirstRow: 0, LastRow: 0, FirstCol: 1, LastCol: 2},
			{FirstRow: 0, LastRow: 0, FirstCol: 3, LastCol: 4},
		},
	}}}

	result, err := newTestPipeline().Run(context.Background(), wb, 0, "预算", 0, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Layout.HeaderRowCount != 2 || !result.Layout.MultiRow {
		t.Errorf("layout = %+v, expected 2 multi-row header rows", result.Layout)
	}
	if !result.Transposed {
		t.Fatal("wide budget sheet must be transposed")
	}

	// 2 items x 2 periods, with budget and actual side by side
	if len(result.Table.Rows) != 4 {
		t.Fatalf("long rows = %d, expected 4", len(result.Table.Rows))
	}
	expectedHeaders := []string{"period", "item", "预算数", "实际数"}
	for i, h := range expectedHeaders {
		if result.Table.Headers[i] != h {
			t.Fatalf("headers = %v, expected %v", result.Table.Headers, expectedHeaders)
		}
	}
	if len(result.Profiles) != 4 {
		t.Errorf("profiles = %d, expected one per long column", len(result.Profiles))
	}
}

// TestPipelineEmptySheet tests the no-rows edge
func TestPipelineEmptySheet(t *testing.T) {
	wb := &testkit.GridWorkbook{Sheets: []testkit.GridSheet{{Name: "空", Cells: nil}}}

	_, err := newTestPipeline().Run(context.Background(), wb, 0, "空", 0, nil)
	if err == nil {
		t.Fatal("expected error for empty sheet")
	}
}
