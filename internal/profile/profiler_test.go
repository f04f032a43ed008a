package profile

import (
	"testing"

	"sheetwise/domain/profile"
)

// TestProfileDateColumn tests date detection with a uniform column
func TestProfileDateColumn(t *testing.T) {
	values := []string{
		"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05",
		"2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09", "2024-01-10",
	}

	prof := NewProfiler().Profile("日期", values)

	if prof.DataType != profile.TypeDate {
		t.Fatalf("DataType = %s, expected DATE", prof.DataType)
	}
	if prof.DateFormat != "2006-01-02" {
		t.Errorf("DateFormat = %q, expected 2006-01-02", prof.DateFormat)
	}
	if prof.Confidence != profile.ConfidenceDate {
		t.Errorf("Confidence = %d, expected %d", prof.Confidence, profile.ConfidenceDate)
	}
}

// TestProfileDateBelowThreshold tests that a 75% date column does not
// classify as DATE
func TestProfileDateBelowThreshold(t *testing.T) {
	values := []string{"2024-01-01", "2024-01-02", "2024-01-03", "备注"}

	prof := NewProfiler().Profile("日期", values)
	if prof.DataType == profile.TypeDate {
		t.Errorf("3 of 4 parsing dates must not classify as DATE, got %s", prof.DataType)
	}
}

// TestProfileMixedFormatsNotDate tests that formats do not pool: each layout
// must individually reach the acceptance ratio
func TestProfileMixedFormatsNotDate(t *testing.T) {
	values := []string{"2024-01-01", "2024/01/02", "01/03/2024", "2024.01.04", "2024年1月5日"}

	prof := NewProfiler().Profile("日期", values)
	if prof.DataType == profile.TypeDate {
		t.Errorf("mixed layouts each below ratio must not classify as DATE")
	}
}

// TestProfileNumericSubTypes tests the subtype refinement chain
func TestProfileNumericSubTypes(t *testing.T) {
	tests := []struct {
		name     string
		column   string
		values   []string
		expected profile.NumericSubType
	}{
		{"amount keyword", "销售金额", []string{"100.5", "200.25", "300.1"}, profile.SubTypeAmount},
		{"percentage keyword", "毛利率", []string{"0.35", "0.42", "0.51"}, profile.SubTypePercentage},
		{"quantity keyword", "订单数量", []string{"3", "7", "15"}, profile.SubTypeQuantity},
		{"currency symbol", "col_a", []string{"¥100.50", "¥200.21", "¥300.33"}, profile.SubTypeAmount},
		{"percent signs in range", "col_b", []string{"45.5%", "61.2%", "72.8%"}, profile.SubTypePercentage},
		{"integral counts", "col_c", []string{"1", "2", "3", "4"}, profile.SubTypeQuantity},
		{"general numeric", "col_d", []string{"1.5", "202.7", "33.9", "450.1"}, profile.SubTypeGeneral},
	}

	p := NewProfiler()
	for _, test := range tests {
		prof := p.Profile(test.column, test.values)
		if prof.DataType != profile.TypeNumeric {
			t.Errorf("%s: DataType = %s, expected NUMERIC", test.name, prof.DataType)
			continue
		}
		if prof.NumericSubType != test.expected {
			t.Errorf("%s: NumericSubType = %s, expected %s", test.name, prof.NumericSubType, test.expected)
		}
	}
}

// TestProfileNumericStats tests the distribution summary fields
func TestProfileNumericStats(t *testing.T) {
	prof := NewProfiler().Profile("amount", []string{"10", "20", "30", "40"})

	if prof.Min == nil || *prof.Min != 10 {
		t.Errorf("Min = %v, expected 10", prof.Min)
	}
	if prof.Max == nil || *prof.Max != 40 {
		t.Errorf("Max = %v, expected 40", prof.Max)
	}
	if prof.Mean == nil || *prof.Mean != 25 {
		t.Errorf("Mean = %v, expected 25", prof.Mean)
	}
	if prof.StdDev == nil {
		t.Error("StdDev missing for multi-value column")
	}
}

// TestProfileIDColumn tests keyword and uniqueness ID detection
func TestProfileIDColumn(t *testing.T) {
	byKeyword := NewProfiler().Profile("订单编号", []string{"A-01", "A-02", "A-01"})
	if byKeyword.DataType != profile.TypeID {
		t.Errorf("keyword column DataType = %s, expected ID", byKeyword.DataType)
	}

	byUniqueness := NewProfiler().Profile("ref", []string{"x1a", "x2b", "x3c", "x4d", "x5e"})
	if byUniqueness.DataType != profile.TypeID {
		t.Errorf("fully unique column DataType = %s, expected ID", byUniqueness.DataType)
	}
}

// TestProfileCategoricalColumn tests low-cardinality text detection
func TestProfileCategoricalColumn(t *testing.T) {
	var values []string
	for i := 0; i < 20; i++ {
		values = append(values, "华东", "华北", "华南")
	}

	prof := NewProfiler().Profile("区域", values)
	if prof.DataType != profile.TypeCategorical {
		t.Fatalf("DataType = %s, expected CATEGORICAL", prof.DataType)
	}
	if prof.UniqueCount != 3 {
		t.Errorf("UniqueCount = %d, expected 3", prof.UniqueCount)
	}
	if len(prof.UniqueValues) != 3 {
		t.Errorf("UniqueValues = %v, expected the 3 distinct labels", prof.UniqueValues)
	}
}

// TestProfileNullAccounting tests that null-equivalent cells are excluded
// from every ratio
func TestProfileNullAccounting(t *testing.T) {
	values := []string{"100", "-", "", "200", "N/A", "300"}

	prof := NewProfiler().Profile("金额", values)
	if prof.NonNullCount != 3 {
		t.Errorf("NonNullCount = %d, expected 3", prof.NonNullCount)
	}
	if prof.NullCount != 3 {
		t.Errorf("NullCount = %d, expected 3", prof.NullCount)
	}
	if prof.TotalRows() != len(values) {
		t.Errorf("TotalRows() = %d, expected %d", prof.TotalRows(), len(values))
	}
	if prof.DataType != profile.TypeNumeric {
		t.Errorf("DataType = %s, expected NUMERIC despite nulls", prof.DataType)
	}
}

// TestProfileEmptyColumn tests the all-null edge case
func TestProfileEmptyColumn(t *testing.T) {
	prof := NewProfiler().Profile("空列", []string{"", "-", "N/A"})
	if prof.DataType != profile.TypeText {
		t.Errorf("DataType = %s, expected TEXT for empty column", prof.DataType)
	}
	if prof.NonNullCount != 0 {
		t.Errorf("NonNullCount = %d, expected 0", prof.NonNullCount)
	}
}

// TestProfileSampleValues tests the sample cap
func TestProfileSampleValues(t *testing.T) {
	values := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7"}
	prof := NewProfiler().Profile("col", values)
	if len(prof.SampleValues) != 5 {
		t.Errorf("SampleValues length = %d, expected 5", len(prof.SampleValues))
	}
}
