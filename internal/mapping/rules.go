package mapping

import (
	"strings"

	"sheetwise/domain/mapping"
	"sheetwise/domain/profile"
)

// Chart-role derivation from a standard field's registered data type.
// Categorical roles additionally depend on the column's cardinality.
const (
	seriesMinUnique = 2
	seriesMaxUnique = 10
	xAxisMaxUnique  = 100
	priorityHigh    = 1
	priorityLow     = 2
	priorityNever   = 99

	confirmBelow       = 70
	fallbackConfidence = 50
	learnAtOrAbove     = 85
)

// Fallback keyword lists for columns the classifier could not place.
var (
	fallbackDateKeywords = []string{
		"日期", "时间", "年月", "月份",
		"date", "time", "month", "year", "period",
	}
	fallbackAmountKeywords = []string{
		"金额", "收入", "成本", "费用", "价格", "销售",
		"amount", "revenue", "cost", "price", "sales",
	}
	fallbackIDKeywords = []string{
		"编号", "编码", "单号", "序号",
		"id", "code", "number",
	}
)

// chartRole is a derived (axis, aggregation, priority) triple.
type chartRole struct {
	axis        mapping.ChartAxis
	aggregation mapping.AggregationType
	priority    int
}

// roleForFieldType derives the chart role of a dictionary hit.
func roleForFieldType(ft mapping.FieldType, uniqueCount int) chartRole {
	switch ft {
	case mapping.FieldDate:
		return chartRole{mapping.AxisX, mapping.AggGroupBy, priorityHigh}
	case mapping.FieldAmount, mapping.FieldQuantity:
		return chartRole{mapping.AxisY, mapping.AggSum, priorityHigh}
	case mapping.FieldNumber:
		return chartRole{mapping.AxisY, mapping.AggAvg, priorityHigh}
	case mapping.FieldPercentage:
		return chartRole{mapping.AxisY, mapping.AggAvg, priorityLow}
	case mapping.FieldID:
		return chartRole{mapping.AxisNone, mapping.AggCountDistinct, priorityNever}
	case mapping.FieldCategorical, mapping.FieldString:
		return categoricalRole(uniqueCount)
	}
	return chartRole{mapping.AxisNone, mapping.AggNone, priorityNever}
}

// categoricalRole places a categorical column by cardinality: a handful of
// values make a legend, a moderate number an x axis, anything larger nothing.
func categoricalRole(uniqueCount int) chartRole {
	switch {
	case uniqueCount >= seriesMinUnique && uniqueCount <= seriesMaxUnique:
		return chartRole{mapping.AxisSeries, mapping.AggGroupBy, priorityHigh}
	case uniqueCount <= xAxisMaxUnique:
		return chartRole{mapping.AxisX, mapping.AggGroupBy, priorityLow}
	default:
		return chartRole{mapping.AxisNone, mapping.AggNone, priorityNever}
	}
}

// roleForProfile is the deterministic fallback when the classifier is
// unavailable or silent on a column. Same shape as the dictionary rule but
// keyed off column-name keywords and the inferred profile.
func roleForProfile(p *profile.ColumnProfile) chartRole {
	name := strings.ToLower(p.Name)
	switch {
	case containsAny(name, fallbackDateKeywords) || p.DataType == profile.TypeDate:
		return chartRole{mapping.AxisX, mapping.AggGroupBy, priorityHigh}
	case containsAny(name, fallbackIDKeywords) || p.DataType == profile.TypeID:
		return chartRole{mapping.AxisNone, mapping.AggCountDistinct, priorityNever}
	case containsAny(name, fallbackAmountKeywords):
		return chartRole{mapping.AxisY, mapping.AggSum, priorityHigh}
	case p.IsNumeric():
		if p.NumericSubType == profile.SubTypePercentage {
			return chartRole{mapping.AxisY, mapping.AggAvg, priorityLow}
		}
		return chartRole{mapping.AxisY, mapping.AggSum, priorityHigh}
	case p.DataType == profile.TypeCategorical:
		return categoricalRole(p.UniqueCount)
	}
	return chartRole{mapping.AxisNone, mapping.AggNone, priorityNever}
}

// parseAxis maps a classifier response axis string to the domain enum
func parseAxis(s string) mapping.ChartAxis {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X_AXIS", "X":
		return mapping.AxisX
	case "SERIES", "LEGEND":
		return mapping.AxisSeries
	case "Y_AXIS", "Y":
		return mapping.AxisY
	}
	return mapping.AxisNone
}

// parseAggregation maps a classifier response aggregation string
func parseAggregation(s string) mapping.AggregationType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUM":
		return mapping.AggSum
	case "AVG", "AVERAGE", "MEAN":
		return mapping.AggAvg
	case "COUNT":
		return mapping.AggCount
	case "COUNT_DISTINCT":
		return mapping.AggCountDistinct
	case "GROUP_BY":
		return mapping.AggGroupBy
	}
	return mapping.AggNone
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
