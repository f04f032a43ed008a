package mapping

import (
	"context"
	"testing"

	"sheetwise/domain/mapping"
	"sheetwise/domain/profile"
	"sheetwise/internal/testkit"
)

func amountField() mapping.StandardField {
	return mapping.StandardField{
		Name:            "amount",
		DisplayName:     "金额",
		DataType:        mapping.FieldAmount,
		MatchConfidence: 95,
		Synonyms:        []string{"销售额", "营业收入"},
	}
}

func dateField() mapping.StandardField {
	return mapping.StandardField{
		Name:            "order_date",
		DisplayName:     "日期",
		DataType:        mapping.FieldDate,
		MatchConfidence: 95,
		Synonyms:        []string{"时间"},
	}
}

// TestMapDictionaryPhase tests exact and synonym dictionary hits
func TestMapDictionaryPhase(t *testing.T) {
	dict := testkit.NewMemoryDictionary()
	dict.AddField(amountField())
	dict.AddField(dateField())

	m := NewMapper(dict, &testkit.StubClassifier{})
	profiles := []profile.ColumnProfile{
		{Name: "amount", DataType: profile.TypeNumeric, UniqueCount: 40},
		{Name: "营业收入", DataType: profile.TypeNumeric, UniqueCount: 40},
		{Name: "日期", DataType: profile.TypeDate, UniqueCount: 12},
	}

	got, err := m.Map(context.Background(), profiles)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	if got[0].Source != mapping.SourceExactMatch || got[0].StandardField != "amount" {
		t.Errorf("exact hit = %+v", got[0])
	}
	if got[1].Source != mapping.SourceSynonymMatch || got[1].StandardField != "amount" {
		t.Errorf("synonym hit = %+v", got[1])
	}
	if got[2].Source != mapping.SourceExactMatch || got[2].StandardField != "order_date" {
		t.Errorf("display-name hit = %+v", got[2])
	}

	if got[0].ChartAxis != mapping.AxisY || got[0].Aggregation != mapping.AggSum {
		t.Errorf("amount role = %s/%s, expected Y_AXIS/SUM", got[0].ChartAxis, got[0].Aggregation)
	}
	if got[2].ChartAxis != mapping.AxisX || got[2].Aggregation != mapping.AggGroupBy {
		t.Errorf("date role = %s/%s, expected X_AXIS/GROUP_BY", got[2].ChartAxis, got[2].Aggregation)
	}
	for _, fm := range got {
		if fm.RequiresConfirmation {
			t.Errorf("high-confidence mapping %q must not require confirmation", fm.OriginalColumn)
		}
	}
}

// TestMapClassifierJoinByName tests that the batched response joins back
// to columns by original name, not by position
func TestMapClassifierJoinByName(t *testing.T) {
	dict := testkit.NewMemoryDictionary()
	classifier := &testkit.StubClassifier{
		Online: true,
		Responses: []mapping.SemanticMapping{
			// Deliberately out of input order
			{OriginalField: "col_b", StandardField: "cost", ChartAxis: "Y_AXIS", Aggregation: "SUM", AxisPriority: 1, Confidence: 0.92},
			{OriginalField: "col_a", StandardField: "region", ChartAxis: "SERIES", Aggregation: "GROUP_BY", AxisPriority: 1, Confidence: 0.88},
		},
	}

	m := NewMapper(dict, classifier)
	profiles := []profile.ColumnProfile{
		{Name: "col_a", DataType: profile.TypeCategorical, UniqueCount: 4},
		{Name: "col_b", DataType: profile.TypeNumeric, UniqueCount: 30},
	}

	got, err := m.Map(context.Background(), profiles)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	if got[0].StandardField != "region" || got[1].StandardField != "cost" {
		t.Errorf("join misassigned: got[0]=%q got[1]=%q", got[0].StandardField, got[1].StandardField)
	}
	if got[1].Confidence != 92 {
		t.Errorf("confidence = %d, expected 92 after scaling", got[1].Confidence)
	}
	if got[0].Source != mapping.SourceAISemantic {
		t.Errorf("source = %s, expected AI_SEMANTIC", got[0].Source)
	}

	calls := classifier.Calls()
	if len(calls) != 1 {
		t.Fatalf("classifier called %d times, expected exactly 1 batched call", len(calls))
	}
	if len(calls[0]) != 2 {
		t.Errorf("batch size = %d, expected 2", len(calls[0]))
	}
}

// TestMapClassifierSilentColumn tests the fallback for a column the
// classifier did not answer for
func TestMapClassifierSilentColumn(t *testing.T) {
	dict := testkit.NewMemoryDictionary()
	classifier := &testkit.StubClassifier{
		Online: true,
		Responses: []mapping.SemanticMapping{
			{OriginalField: "known", StandardField: "amount", ChartAxis: "Y_AXIS", Aggregation: "SUM", AxisPriority: 1, Confidence: 0.9},
		},
	}

	m := NewMapper(dict, classifier)
	profiles := []profile.ColumnProfile{
		{Name: "known", DataType: profile.TypeNumeric, UniqueCount: 10},
		{Name: "神秘列", DataType: profile.TypeText, UniqueCount: 80},
	}

	got, err := m.Map(context.Background(), profiles)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	silent := got[1]
	if silent.Source != mapping.SourceFeatureInfer {
		t.Errorf("source = %s, expected FEATURE_INFER", silent.Source)
	}
	if silent.Confidence != fallbackConfidence {
		t.Errorf("confidence = %d, expected %d", silent.Confidence, fallbackConfidence)
	}
	if !silent.RequiresConfirmation {
		t.Error("fallback mapping must require confirmation")
	}
	if silent.StandardField != "" {
		t.Errorf("fallback must leave the standard field empty, got %q", silent.StandardField)
	}
}

// TestMapClassifierUnavailable tests full fallback when the classifier
// reports itself offline
func TestMapClassifierUnavailable(t *testing.T) {
	dict := testkit.NewMemoryDictionary()
	classifier := &testkit.StubClassifier{Online: false}

	m := NewMapper(dict, classifier)
	profiles := []profile.ColumnProfile{
		{Name: "发生日期", DataType: profile.TypeDate, UniqueCount: 30},
		{Name: "本期金额", DataType: profile.TypeNumeric, NumericSubType: profile.SubTypeAmount, UniqueCount: 28},
	}

	got, err := m.Map(context.Background(), profiles)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if len(classifier.Calls()) != 0 {
		t.Error("offline classifier must not be called")
	}
	if got[0].ChartAxis != mapping.AxisX {
		t.Errorf("date-keyword fallback axis = %s, expected X_AXIS", got[0].ChartAxis)
	}
	if got[1].ChartAxis != mapping.AxisY || got[1].Aggregation != mapping.AggSum {
		t.Errorf("amount-keyword fallback role = %s/%s", got[1].ChartAxis, got[1].Aggregation)
	}
	for _, fm := range got {
		if fm.Source != mapping.SourceFeatureInfer || !fm.RequiresConfirmation {
			t.Errorf("fallback mapping %+v must be FEATURE_INFER and confirmed", fm)
		}
	}
}

// TestMapLearningLoop tests that high-confidence classifier hits are
// written back to the dictionary and lower ones are not
func TestMapLearningLoop(t *testing.T) {
	dict := testkit.NewMemoryDictionary()
	classifier := &testkit.StubClassifier{
		Online: true,
		Responses: []mapping.SemanticMapping{
			{OriginalField: "本月销售", StandardField: "amount", ChartAxis: "Y_AXIS", Aggregation: "SUM", AxisPriority: 1, Confidence: 0.9},
			{OriginalField: "不确定列", StandardField: "cost", ChartAxis: "Y_AXIS", Aggregation: "SUM", AxisPriority: 1, Confidence: 0.6},
		},
	}

	m := NewMapper(dict, classifier)
	profiles := []profile.ColumnProfile{
		{Name: "本月销售", DataType: profile.TypeNumeric, UniqueCount: 20},
		{Name: "不确定列", DataType: profile.TypeNumeric, UniqueCount: 20},
	}

	got, err := m.Map(context.Background(), profiles)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	saved := dict.Saved()
	if len(saved) != 1 {
		t.Fatalf("saved mappings = %d, expected only the high-confidence one", len(saved))
	}
	if saved[0].Field != "amount" || saved[0].OriginalColumn != "本月销售" {
		t.Errorf("saved = %+v", saved[0])
	}

	if got[1].Confidence != 60 {
		t.Errorf("low-confidence mapping = %d, expected 60", got[1].Confidence)
	}
	if !got[1].RequiresConfirmation {
		t.Error("mappings below the confirmation threshold must be flagged")
	}
	if got[0].RequiresConfirmation {
		t.Error("90-confidence mapping must not be flagged")
	}
}

// TestMapDuplicateColumnNames tests that only the first occurrence of a
// duplicated name reaches the classifier
func TestMapDuplicateColumnNames(t *testing.T) {
	dict := testkit.NewMemoryDictionary()
	classifier := &testkit.StubClassifier{
		Online: true,
		Responses: []mapping.SemanticMapping{
			{OriginalField: "值", StandardField: "amount", ChartAxis: "Y_AXIS", Aggregation: "SUM", AxisPriority: 1, Confidence: 0.9},
		},
	}

	m := NewMapper(dict, classifier)
	profiles := []profile.ColumnProfile{
		{Name: "值", DataType: profile.TypeNumeric, UniqueCount: 10},
		{Name: "值", DataType: profile.TypeNumeric, UniqueCount: 10},
	}

	got, err := m.Map(context.Background(), profiles)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	calls := classifier.Calls()
	if len(calls) != 1 || len(calls[0]) != 1 {
		t.Fatalf("classifier batch = %v, expected one sample total", calls)
	}
	if got[0].Source != mapping.SourceAISemantic {
		t.Errorf("first occurrence source = %s, expected AI_SEMANTIC", got[0].Source)
	}
	if got[1].Source != mapping.SourceFeatureInfer {
		t.Errorf("duplicate occurrence source = %s, expected FEATURE_INFER", got[1].Source)
	}
}

// TestResolveAxisConflicts tests the per-sheet X_AXIS and SERIES invariant
func TestResolveAxisConflicts(t *testing.T) {
	profiles := []profile.ColumnProfile{
		{Name: "日期", UniqueCount: 30},
		{Name: "区域", UniqueCount: 5},
		{Name: "渠道", UniqueCount: 4},
	}
	mappings := []mapping.FieldMapping{
		{OriginalColumn: "日期", ChartAxis: mapping.AxisX, AxisPriority: 1},
		{OriginalColumn: "区域", ChartAxis: mapping.AxisX, AxisPriority: 2},
		{OriginalColumn: "渠道", ChartAxis: mapping.AxisSeries, AxisPriority: 1},
	}

	resolveAxisConflicts(mappings, profiles)

	if mappings[0].ChartAxis != mapping.AxisX {
		t.Errorf("priority-1 contender lost X_AXIS: %s", mappings[0].ChartAxis)
	}
	// The loser has 5 uniques, eligible for the legend, but the legend is
	// taken: exactly one SERIES must survive.
	series := 0
	for _, m := range mappings {
		if m.ChartAxis == mapping.AxisSeries {
			series++
		}
	}
	if series != 1 {
		t.Errorf("SERIES count = %d, expected 1", series)
	}
	if mappings[1].ChartAxis == mapping.AxisX {
		t.Error("demoted contender still holds X_AXIS")
	}
}

// TestResolveAxisConflictsDemoteToNone tests demotion when the losing
// column is too wide for a legend
func TestResolveAxisConflictsDemoteToNone(t *testing.T) {
	profiles := []profile.ColumnProfile{
		{Name: "日期", UniqueCount: 30},
		{Name: "客户", UniqueCount: 80},
	}
	mappings := []mapping.FieldMapping{
		{OriginalColumn: "日期", ChartAxis: mapping.AxisX, AxisPriority: 1},
		{OriginalColumn: "客户", ChartAxis: mapping.AxisX, AxisPriority: 2},
	}

	resolveAxisConflicts(mappings, profiles)

	if mappings[1].ChartAxis != mapping.AxisNone {
		t.Errorf("80-unique loser axis = %s, expected NONE", mappings[1].ChartAxis)
	}
}

// TestRoleForFieldType tests the dictionary-hit chart-role table
func TestRoleForFieldType(t *testing.T) {
	tests := []struct {
		ft       mapping.FieldType
		unique   int
		axis     mapping.ChartAxis
		agg      mapping.AggregationType
		priority int
	}{
		{mapping.FieldDate, 10, mapping.AxisX, mapping.AggGroupBy, 1},
		{mapping.FieldAmount, 10, mapping.AxisY, mapping.AggSum, 1},
		{mapping.FieldQuantity, 10, mapping.AxisY, mapping.AggSum, 1},
		{mapping.FieldNumber, 10, mapping.AxisY, mapping.AggAvg, 1},
		{mapping.FieldPercentage, 10, mapping.AxisY, mapping.AggAvg, 2},
		{mapping.FieldID, 10, mapping.AxisNone, mapping.AggCountDistinct, 99},
		{mapping.FieldCategorical, 5, mapping.AxisSeries, mapping.AggGroupBy, 1},
		{mapping.FieldCategorical, 60, mapping.AxisX, mapping.AggGroupBy, 2},
		{mapping.FieldCategorical, 500, mapping.AxisNone, mapping.AggNone, 99},
	}

	for _, test := range tests {
		role := roleForFieldType(test.ft, test.unique)
		if role.axis != test.axis || role.aggregation != test.agg || role.priority != test.priority {
			t.Errorf("roleForFieldType(%s, %d) = %s/%s/%d, expected %s/%s/%d",
				test.ft, test.unique, role.axis, role.aggregation, role.priority,
				test.axis, test.agg, test.priority)
		}
	}
}
