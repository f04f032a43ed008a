package profile

// DataType is the statistical classification of a column's values.
type DataType string

const (
	TypeDate        DataType = "DATE"
	TypeNumeric     DataType = "NUMERIC"
	TypeCategorical DataType = "CATEGORICAL"
	TypeID          DataType = "ID"
	TypeText        DataType = "TEXT"
)

// NumericSubType refines NUMERIC columns for chart-role assignment.
type NumericSubType string

const (
	SubTypeAmount     NumericSubType = "AMOUNT"
	SubTypePercentage NumericSubType = "PERCENTAGE"
	SubTypeQuantity   NumericSubType = "QUANTITY"
	SubTypeGeneral    NumericSubType = "GENERAL"
)

// Fixed confidence scores per detected type. These are assigned, not computed.
const (
	ConfidenceDate        = 95
	ConfidenceNumeric     = 90
	ConfidenceID          = 85
	ConfidenceCategorical = 80
	ConfidenceText        = 70
)

// ColumnProfile is the statistical summary of one column.
// Invariant: UniqueCount <= NonNullCount, NonNullCount + NullCount = total rows.
type ColumnProfile struct {
	Name           string         `json:"name"`
	DataType       DataType       `json:"data_type"`
	NumericSubType NumericSubType `json:"numeric_sub_type,omitempty"`
	DateFormat     string         `json:"date_format,omitempty"`
	NonNullCount   int            `json:"non_null_count"`
	NullCount      int            `json:"null_count"`
	UniqueCount    int            `json:"unique_count"`
	SampleValues   []string       `json:"sample_values,omitempty"`
	UniqueValues   []string       `json:"unique_values,omitempty"`
	Min            *float64       `json:"min,omitempty"`
	Max            *float64       `json:"max,omitempty"`
	Mean           *float64       `json:"mean,omitempty"`
	StdDev         *float64       `json:"std_dev,omitempty"`
	Confidence     int            `json:"confidence"`
}

// TotalRows returns the row count the profile was computed over
func (p *ColumnProfile) TotalRows() int {
	return p.NonNullCount + p.NullCount
}

// IsNumeric reports whether the column carries plotted values
func (p *ColumnProfile) IsNumeric() bool {
	return p.DataType == TypeNumeric
}
