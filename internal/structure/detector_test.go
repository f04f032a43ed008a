package structure

import (
	"reflect"
	"testing"

	"sheetwise/domain/grid"
)

// TestDetectSingleRowHeader tests the plain one-row header case
func TestDetectSingleRowHeader(t *testing.T) {
	g := &grid.RawGrid{Cells: [][]string{
		{"日期", "区域", "金额"},
		{"2024-01-01", "华东", "1200"},
		{"2024-01-02", "华北", "800"},
	}}

	layout := NewDetector(5).Detect(g, nil, 0)

	if layout.HeaderRowCount != 1 {
		t.Errorf("HeaderRowCount = %d, expected 1", layout.HeaderRowCount)
	}
	if layout.MultiRow {
		t.Error("expected single-row layout")
	}
	if !reflect.DeepEqual(layout.MergedHeaders, []string{"日期", "区域", "金额"}) {
		t.Errorf("MergedHeaders = %v", layout.MergedHeaders)
	}
}

// TestDetectMultiRowHeaderViaRowSpan tests that a row-spanning merged
// region forces a multi-row layout
func TestDetectMultiRowHeaderViaRowSpan(t *testing.T) {
	g := &grid.RawGrid{Cells: [][]string{
		{"项目", "2025年1月", "2025年1月"},
		{"", "预算数", "实际数"},
		{"营业收入", "100", "98"},
	}}
	regions := []grid.MergedRegion{
		{FirstRow: 0, LastRow: 1, FirstCol: 0, LastCol: 0},
		{FirstRow: 0, LastRow: 0, FirstCol: 1, LastCol: 2},
	}

	layout := NewDetector(5).Detect(g, regions, 0)

	if !layout.MultiRow {
		t.Fatal("expected multi-row layout")
	}
	if layout.HeaderRowCount != 2 {
		t.Errorf("HeaderRowCount = %d, expected 2", layout.HeaderRowCount)
	}
	expected := []string{"项目", "2025年1月_预算数", "2025年1月_实际数"}
	if !reflect.DeepEqual(layout.MergedHeaders, expected) {
		t.Errorf("MergedHeaders = %v, expected %v", layout.MergedHeaders, expected)
	}
}

// TestDetectColumnSpanNeedsTextRows tests that a column-only span counts
// as multi-row structure only when more than one text row precedes the data
func TestDetectColumnSpanNeedsTextRows(t *testing.T) {
	g := &grid.RawGrid{Cells: [][]string{
		{"类别", "金额", "数量"},
		{"食品", "120", "3"},
	}}
	regions := []grid.MergedRegion{
		{FirstRow: 0, LastRow: 0, FirstCol: 1, LastCol: 2},
	}

	layout := NewDetector(5).Detect(g, regions, 0)
	if layout.MultiRow {
		t.Error("one text row with a column-span should stay single-row")
	}
}

// TestDetectOverrideWins tests that a larger caller override replaces the
// detected header row count
func TestDetectOverrideWins(t *testing.T) {
	g := &grid.RawGrid{Cells: [][]string{
		{"a", "b"},
		{"c", "d"},
		{"1", "2"},
	}}

	layout := NewDetector(5).Detect(g, nil, 2)
	if layout.HeaderRowCount != 2 {
		t.Errorf("HeaderRowCount = %d, expected override 2", layout.HeaderRowCount)
	}
	if !layout.MultiRow {
		t.Error("override above 1 should mark the layout multi-row")
	}
}

// TestTextOnlyRowCount tests the top-down numeric-fraction walk
func TestTextOnlyRowCount(t *testing.T) {
	tests := []struct {
		name     string
		cells    [][]string
		expected int
	}{
		{
			name: "stops at first mostly numeric row",
			cells: [][]string{
				{"项目", "1月", "2月"},
				{"小计", "子项", "说明"},
				{"收入", "100", "200"},
			},
			expected: 2,
		},
		{
			name: "all text yields full count",
			cells: [][]string{
				{"a", "b"},
				{"c", "d"},
			},
			expected: 2,
		},
		{
			name: "numeric first row still yields one",
			cells: [][]string{
				{"1", "2"},
				{"3", "4"},
			},
			expected: 1,
		},
	}

	d := NewDetector(5)
	for _, test := range tests {
		g := &grid.RawGrid{Cells: test.cells}
		if got := d.textOnlyRowCount(g); got != test.expected {
			t.Errorf("%s: textOnlyRowCount = %d, expected %d", test.name, got, test.expected)
		}
	}
}

// TestMergeHeadersForwardFill tests per-column forward fill and the
// distinct ordered join
func TestMergeHeadersForwardFill(t *testing.T) {
	g := &grid.RawGrid{Cells: [][]string{
		{"大类", "", "明细"},
		{"大类", "小类", ""},
	}}
	layout := grid.HeaderLayout{HeaderRowCount: 2}

	got := MergeHeaders(g, layout)
	expected := []string{"大类", "小类", "明细"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("MergeHeaders = %v, expected %v", got, expected)
	}
}

// TestMergeHeadersPlaceholder tests the positional fallback for columns
// that stay empty after filling
func TestMergeHeadersPlaceholder(t *testing.T) {
	g := &grid.RawGrid{Cells: [][]string{
		{"名称", "", "金额"},
		{"", "", ""},
	}}
	layout := grid.HeaderLayout{HeaderRowCount: 2}

	got := MergeHeaders(g, layout)
	if got[1] != "column_2" {
		t.Errorf("empty column name = %q, expected column_2", got[1])
	}
}

// TestMergeHeadersRegionFill tests top-left propagation across a merged block
func TestMergeHeadersRegionFill(t *testing.T) {
	g := &grid.RawGrid{Cells: [][]string{
		{"2025年1月", "", "2025年2月", ""},
		{"预算数", "实际数", "预算数", "实际数"},
	}}
	layout := grid.HeaderLayout{
		HeaderRowCount: 2,
		MergedRegions: []grid.MergedRegion{
			{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 1},
			{FirstRow: 0, LastRow: 0, FirstCol: 2, LastCol: 3},
		},
	}

	got := MergeHeaders(g, layout)
	expected := []string{"2025年1月_预算数", "2025年1月_实际数", "2025年2月_预算数", "2025年2月_实际数"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("MergeHeaders = %v, expected %v", got, expected)
	}
}
