package mapping

import "sheetwise/domain/profile"

// MappingSource records how a column was matched to a standard field.
type MappingSource string

const (
	SourceExactMatch   MappingSource = "EXACT_MATCH"
	SourceSynonymMatch MappingSource = "SYNONYM_MATCH"
	SourceAISemantic   MappingSource = "AI_SEMANTIC"
	SourceFeatureInfer MappingSource = "FEATURE_INFER"
	SourceManual       MappingSource = "MANUAL"
)

// ChartAxis is the display role a mapped field plays in a chart.
type ChartAxis string

const (
	AxisX      ChartAxis = "X_AXIS"
	AxisSeries ChartAxis = "SERIES"
	AxisY      ChartAxis = "Y_AXIS"
	AxisNone   ChartAxis = "NONE"
)

// AggregationType is the default aggregation applied when the field is charted.
type AggregationType string

const (
	AggSum           AggregationType = "SUM"
	AggAvg           AggregationType = "AVG"
	AggCount         AggregationType = "COUNT"
	AggCountDistinct AggregationType = "COUNT_DISTINCT"
	AggGroupBy       AggregationType = "GROUP_BY"
	AggNone          AggregationType = "NONE"
)

// FieldType is the registered data type of a standard schema field.
type FieldType string

const (
	FieldDate        FieldType = "DATE"
	FieldAmount      FieldType = "AMOUNT"
	FieldQuantity    FieldType = "QUANTITY"
	FieldNumber      FieldType = "NUMBER"
	FieldPercentage  FieldType = "PERCENTAGE"
	FieldID          FieldType = "ID"
	FieldCategorical FieldType = "CATEGORICAL"
	FieldString      FieldType = "STRING"
)

// StandardField is a canonical schema field a raw column can map to.
type StandardField struct {
	Name            string    `json:"name"`
	DisplayName     string    `json:"display_name"`
	DataType        FieldType `json:"data_type"`
	Required        bool      `json:"required"`
	MatchConfidence int       `json:"match_confidence"`
	Synonyms        []string  `json:"synonyms,omitempty"`
}

// FieldMapping binds one original column to a standard field and a chart role.
// Per sheet at most one mapping holds AxisX and at most one holds AxisSeries.
type FieldMapping struct {
	OriginalColumn       string          `json:"original_column"`
	StandardField        string          `json:"standard_field,omitempty"`
	Source               MappingSource   `json:"source"`
	Confidence           int             `json:"confidence"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
	ChartAxis            ChartAxis       `json:"chart_axis"`
	Aggregation          AggregationType `json:"aggregation"`
	AxisPriority         int             `json:"axis_priority"`
	Reasoning            string          `json:"reasoning,omitempty"`
}

// Mapped reports whether the column resolved to a standard field
func (m *FieldMapping) Mapped() bool {
	return m.StandardField != ""
}

// ColumnSample is one column's evidence sent to the semantic classifier.
type ColumnSample struct {
	ColumnName       string           `json:"column_name"`
	InferredDataType profile.DataType `json:"inferred_data_type"`
	SampleValues     []string         `json:"sample_values"`
	UniqueValueCount int              `json:"unique_value_count"`
}

// SemanticMapping is one entry of the classifier's batch response.
// Confidence here is 0..1; the mapper scales it to 0..100.
type SemanticMapping struct {
	OriginalField string  `json:"original_field"`
	StandardField string  `json:"standard_field"`
	Alias         string  `json:"alias,omitempty"`
	Role          string  `json:"role,omitempty"`
	ChartAxis     string  `json:"chart_axis"`
	Aggregation   string  `json:"aggregation_type"`
	AxisPriority  int     `json:"axis_priority"`
	Confidence    float64 `json:"confidence"`
	Reasoning     string  `json:"reasoning,omitempty"`
}
