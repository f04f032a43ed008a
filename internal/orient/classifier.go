// Package orient decides whether a table is row- or column-oriented and
// pivots wide (column-oriented) tables into long format.
package orient

import (
	"log"
	"regexp"

	"sheetwise/domain/grid"
	"sheetwise/internal/coerce"
)

// timePatterns is the fixed library of date/quarter/month/week/fiscal-year
// header shapes. A header matching any of them counts as a time column.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}年\d{1,2}月`),
	regexp.MustCompile(`^\d{4}年$`),
	regexp.MustCompile(`^\d{1,2}月`),
	regexp.MustCompile(`\d{4}[-/.]\d{1,2}([-/.]\d{1,2})?`),
	regexp.MustCompile(`(?i)^q[1-4]`),
	regexp.MustCompile(`\d{4}[Qq][1-4]`),
	regexp.MustCompile(`[一二三四]季度`),
	regexp.MustCompile(`第\d{1,2}周`),
	regexp.MustCompile(`(?i)fy\d{2,4}`),
	regexp.MustCompile(`(?i)^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[\s-]?\d{2,4}$`),
}

const (
	labelTextRatio     = 0.7
	labelUniqueRatio   = 0.5
	numericColumnRatio = 0.95
	nonLabelNumeric    = 0.7
	timeRatioThreshold = 0.3
	wideAspectRatio    = 2.0
)

// Features are the measurements the decision rules consume. Exposed so the
// report of a classification can be inspected and asserted on.
type Features struct {
	RowCount               int     `json:"row_count"`
	ColumnCount            int     `json:"column_count"`
	TimePatternHeaderCount int     `json:"time_pattern_header_count"`
	TimePatternRatio       float64 `json:"time_pattern_ratio"`
	FirstColumnIsLabels    bool    `json:"first_column_is_labels"`
	NumericColumnCount     int     `json:"numeric_column_count"`
	NonLabelNumericRatio   float64 `json:"non_label_numeric_ratio"`
	WidthHeightRatio       float64 `json:"width_height_ratio"`
	HasDateColumnInData    bool    `json:"has_date_column_in_data"`
}

// Decision is the classification outcome with the rule that fired.
type Decision struct {
	Orientation grid.Orientation `json:"orientation"`
	Rule        string           `json:"rule"`
	Features    Features         `json:"features"`
}

// rule is one entry of the ordered decision table, evaluated top to bottom.
type rule struct {
	name string
	when func(f Features) bool
	then grid.Orientation
}

var decisionRules = []rule{
	{
		name: "many_time_headers_with_labels",
		when: func(f Features) bool {
			return f.TimePatternHeaderCount >= 2 && f.FirstColumnIsLabels &&
				(f.NumericColumnCount > f.RowCount || f.TimePatternRatio >= timeRatioThreshold)
		},
		then: grid.ColumnOriented,
	},
	{
		name: "time_header_wide_numeric",
		when: func(f Features) bool {
			return f.TimePatternHeaderCount >= 1 && f.FirstColumnIsLabels &&
				f.NonLabelNumericRatio >= nonLabelNumeric && f.RowCount < f.ColumnCount*2
		},
		then: grid.ColumnOriented,
	},
	{
		name: "date_column_in_data",
		when: func(f Features) bool {
			return f.HasDateColumnInData && f.TimePatternHeaderCount == 0
		},
		then: grid.RowOriented,
	},
	{
		name: "tall_no_time_headers",
		when: func(f Features) bool {
			return f.WidthHeightRatio >= wideAspectRatio && f.TimePatternHeaderCount == 0
		},
		then: grid.RowOriented,
	},
	{
		name: "no_time_headers_no_labels",
		when: func(f Features) bool {
			return f.TimePatternHeaderCount == 0 && !f.FirstColumnIsLabels
		},
		then: grid.RowOriented,
	},
}

// Classifier decides table orientation from headers and sampled rows.
type Classifier struct{}

// NewClassifier creates an orientation classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify runs the ordered rule table over the measured features.
// When no rule fires the orientation is unknown and no transpose is applied.
func (c *Classifier) Classify(table *grid.Table) Decision {
	f := c.measure(table)
	for _, r := range decisionRules {
		if r.when(f) {
			log.Printf("[OrientationClassifier] rule=%s orientation=%s timeHeaders=%d labels=%v",
				r.name, r.then, f.TimePatternHeaderCount, f.FirstColumnIsLabels)
			return Decision{Orientation: r.then, Rule: r.name, Features: f}
		}
	}
	log.Printf("[OrientationClassifier] no rule fired, orientation unknown")
	return Decision{Orientation: grid.OrientationUnknown, Rule: "none", Features: f}
}

func (c *Classifier) measure(table *grid.Table) Features {
	f := Features{
		RowCount:    len(table.Rows),
		ColumnCount: len(table.Headers),
	}
	if f.ColumnCount == 0 {
		return f
	}

	timeIndex := make(map[int]bool)
	for i, h := range table.Headers {
		if IsTimePatternHeader(h) {
			f.TimePatternHeaderCount++
			timeIndex[i] = true
		}
	}
	f.TimePatternRatio = float64(f.TimePatternHeaderCount) / float64(f.ColumnCount)

	f.FirstColumnIsLabels = c.firstColumnIsLabels(table)

	numericNonLabel := 0
	nonLabelCols := 0
	for i := range table.Headers {
		numeric := c.isNumericColumn(table.ColumnValues(i))
		if numeric {
			f.NumericColumnCount++
		}
		if i != 0 {
			nonLabelCols++
			if numeric {
				numericNonLabel++
			}
		}
		if !timeIndex[i] && !f.HasDateColumnInData {
			if c.isDateColumn(table.ColumnValues(i)) {
				f.HasDateColumnInData = true
			}
		}
	}
	if nonLabelCols > 0 {
		f.NonLabelNumericRatio = float64(numericNonLabel) / float64(nonLabelCols)
	}

	f.WidthHeightRatio = float64(f.RowCount) / float64(f.ColumnCount)
	return f
}

// firstColumnIsLabels holds when the first column is mostly unique text
func (c *Classifier) firstColumnIsLabels(table *grid.Table) bool {
	values := table.ColumnValues(0)
	nonNull := 0
	text := 0
	uniques := make(map[string]bool)
	for _, v := range values {
		if coerce.IsBlank(v) {
			continue
		}
		nonNull++
		uniques[v] = true
		if !coerce.IsNumeric(v) {
			text++
		}
	}
	if nonNull == 0 {
		return false
	}
	textRatio := float64(text) / float64(nonNull)
	uniqueRatio := float64(len(uniques)) / float64(nonNull)
	return textRatio >= labelTextRatio && uniqueRatio >= labelUniqueRatio
}

func (c *Classifier) isNumericColumn(values []string) bool {
	nonNull := 0
	numeric := 0
	for _, v := range values {
		if coerce.IsBlank(v) {
			continue
		}
		nonNull++
		if coerce.IsNumeric(v) {
			numeric++
		}
	}
	if nonNull == 0 {
		return false
	}
	return float64(numeric)/float64(nonNull) >= numericColumnRatio
}

// isDateColumn applies the profiler's date acceptance rule to data values
func (c *Classifier) isDateColumn(values []string) bool {
	var nonNull []string
	for _, v := range values {
		if !coerce.IsBlank(v) {
			nonNull = append(nonNull, v)
		}
	}
	if len(nonNull) == 0 {
		return false
	}
	for _, layout := range coerce.DateFormats {
		matched := 0
		for _, v := range nonNull {
			if _, ok := coerce.TryParseDate(v, layout); ok {
				matched++
			}
		}
		if float64(matched)/float64(len(nonNull)) >= 0.9 {
			return true
		}
	}
	return false
}

// IsTimePatternHeader reports whether a header matches the time library
func IsTimePatternHeader(header string) bool {
	for _, p := range timePatterns {
		if p.MatchString(header) {
			return true
		}
	}
	return false
}
