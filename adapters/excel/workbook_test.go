package excel

import (
	"testing"

	"sheetwise/domain/grid"
	"sheetwise/internal/testkit"
)

// TestOpenAndReadGrid tests reading back a real xlsx fixture
func TestOpenAndReadGrid(t *testing.T) {
	data := testkit.MustBuildWorkbook(testkit.SheetSpec{
		Name: "一月",
		Rows: [][]any{
			{"日期", "区域", "金额"},
			{"2024-01-01", "华东", 1200},
			{"2024-01-02", "华北", 800},
		},
	})

	wb, err := NewOpener().Open(data)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer wb.Close()

	names := wb.SheetNames()
	if len(names) != 1 || names[0] != "一月" {
		t.Fatalf("SheetNames = %v", names)
	}

	g, err := wb.ReadGrid(0)
	if err != nil {
		t.Fatalf("ReadGrid failed: %v", err)
	}
	if g.RowCount() != 3 || g.ColumnCount() != 3 {
		t.Fatalf("grid %dx%d, expected 3x3", g.RowCount(), g.ColumnCount())
	}
	if g.Cell(0, 2) != "金额" {
		t.Errorf("Cell(0,2) = %q", g.Cell(0, 2))
	}
	if g.Cell(1, 2) != "1200" {
		t.Errorf("Cell(1,2) = %q, expected numeric cell rendered as text", g.Cell(1, 2))
	}
}

// TestMergedRegions tests zero-based merged-cell rectangles
func TestMergedRegions(t *testing.T) {
	data := testkit.MustBuildWorkbook(testkit.SheetSpec{
		Name: "预算",
		Rows: [][]any{
			{"项目", "2025年1月", "", "2025年2月", ""},
			{"", "预算数", "实际数", "预算数", "实际数"},
			{"营业收入", 100, 98, 110, 105},
		},
		Merges: []string{"A1:A2", "B1:C1", "D1:E1"},
	})

	wb, err := NewOpener().Open(data)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer wb.Close()

	regions, err := wb.MergedRegions(0)
	if err != nil {
		t.Fatalf("MergedRegions failed: %v", err)
	}
	if len(regions) != 3 {
		t.Fatalf("regions = %v, expected 3", regions)
	}

	byStart := map[[2]int]grid.MergedRegion{}
	for _, r := range regions {
		byStart[[2]int{r.FirstRow, r.FirstCol}] = r
	}

	vertical, ok := byStart[[2]int{0, 0}]
	if !ok || !vertical.SpansRows() || vertical.LastRow != 1 {
		t.Errorf("A1:A2 region = %+v", vertical)
	}
	horizontal, ok := byStart[[2]int{0, 1}]
	if !ok || !horizontal.SpansColumns() || horizontal.LastCol != 2 {
		t.Errorf("B1:C1 region = %+v", horizontal)
	}
}

// TestOpenRejectsBadBytes tests the invalid-input edges
func TestOpenRejectsBadBytes(t *testing.T) {
	if _, err := NewOpener().Open(nil); err == nil {
		t.Error("expected error for empty bytes")
	}
	if _, err := NewOpener().Open([]byte("not an xlsx file")); err == nil {
		t.Error("expected error for corrupt bytes")
	}
}

// TestReadGridOutOfRange tests sheet index validation
func TestReadGridOutOfRange(t *testing.T) {
	data := testkit.MustBuildWorkbook(testkit.SheetSpec{
		Name: "only",
		Rows: [][]any{{"a"}},
	})

	wb, err := NewOpener().Open(data)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer wb.Close()

	if _, err := wb.ReadGrid(3); err == nil {
		t.Error("expected error for out-of-range sheet index")
	}
}
