// Package profile statistically classifies spreadsheet columns.
package profile

import (
	"strings"

	"sheetwise/domain/profile"
	"sheetwise/internal/coerce"
)

const (
	dateAcceptRatio    = 0.90
	numericAcceptRatio = 0.95
	idUniqueRatio      = 0.95
	categoricalRatio   = 0.20
	categoricalMax     = 50
	integralRatio      = 0.90
	maxSampleValues    = 5
)

// Keyword lists consulted for numeric subtype and ID detection. Matched
// case-insensitively as substrings of the column name, in declaration order.
var (
	amountKeywords = []string{
		"金额", "收入", "成本", "费用", "价格", "销售额", "总额", "预算", "余额",
		"amount", "revenue", "cost", "price", "budget", "balance", "total",
	}
	percentageKeywords = []string{
		"率", "比例", "占比", "百分比",
		"percent", "percentage", "ratio", "rate",
	}
	quantityKeywords = []string{
		"数量", "件数", "个数", "人数", "次数",
		"quantity", "qty", "count", "units",
	}
	idKeywords = []string{
		"编号", "编码", "单号", "序号", "工号",
		"id", "code", "number", "no.", "sku",
	}
)

// Profiler classifies one column at a time. Stateless and safe for
// concurrent use.
type Profiler struct{}

// NewProfiler creates a column profiler
func NewProfiler() *Profiler {
	return &Profiler{}
}

// Profile classifies a named column from its raw values.
func (p *Profiler) Profile(name string, values []string) profile.ColumnProfile {
	var nonNull []string
	nullCount := 0
	uniques := make(map[string]bool)
	var uniqueOrder []string

	for _, v := range values {
		if coerce.IsBlank(v) {
			nullCount++
			continue
		}
		v = strings.TrimSpace(v)
		nonNull = append(nonNull, v)
		if !uniques[v] {
			uniques[v] = true
			uniqueOrder = append(uniqueOrder, v)
		}
	}

	prof := profile.ColumnProfile{
		Name:         name,
		NonNullCount: len(nonNull),
		NullCount:    nullCount,
		UniqueCount:  len(uniques),
		SampleValues: sample(nonNull, maxSampleValues),
	}

	if len(nonNull) == 0 {
		prof.DataType = profile.TypeText
		prof.Confidence = profile.ConfidenceText
		return prof
	}

	if layout, ok := p.detectDate(nonNull); ok {
		prof.DataType = profile.TypeDate
		prof.DateFormat = layout
		prof.Confidence = profile.ConfidenceDate
		return prof
	}

	if parsed, ok := p.detectNumeric(nonNull); ok {
		prof.DataType = profile.TypeNumeric
		prof.NumericSubType = p.numericSubType(name, nonNull, parsed)
		prof.Confidence = profile.ConfidenceNumeric
		summarize(&prof, parsed)
		return prof
	}

	uniqueRatio := float64(len(uniques)) / float64(len(nonNull))
	if matchesKeyword(name, idKeywords) || uniqueRatio > idUniqueRatio {
		prof.DataType = profile.TypeID
		prof.Confidence = profile.ConfidenceID
		return prof
	}

	if uniqueRatio < categoricalRatio && len(uniques) <= categoricalMax {
		prof.DataType = profile.TypeCategorical
		prof.Confidence = profile.ConfidenceCategorical
		prof.UniqueValues = uniqueOrder
		return prof
	}

	prof.DataType = profile.TypeText
	prof.Confidence = profile.ConfidenceText
	return prof
}

// detectDate walks the fixed layout priority list; the first layout under
// which enough values parse wins.
func (p *Profiler) detectDate(values []string) (string, bool) {
	for _, layout := range coerce.DateFormats {
		matched := 0
		for _, v := range values {
			if _, ok := coerce.TryParseDate(v, layout); ok {
				matched++
			}
		}
		if float64(matched)/float64(len(values)) >= dateAcceptRatio {
			return layout, true
		}
	}
	return "", false
}

// detectNumeric accepts the column when enough values match the tolerant
// numeric shape, returning the parsed values for the subtype chain.
func (p *Profiler) detectNumeric(values []string) ([]float64, bool) {
	matched := 0
	parsed := make([]float64, 0, len(values))
	for _, v := range values {
		if coerce.IsNumeric(v) {
			matched++
			if f, ok := coerce.TryParseNumeric(v); ok {
				parsed = append(parsed, f)
			}
		}
	}
	if float64(matched)/float64(len(values)) < numericAcceptRatio || len(parsed) == 0 {
		return nil, false
	}
	return parsed, true
}

// numericSubType resolves the refinement chain: column-name keywords first,
// then currency symbols, percent-shaped ranges, integral counts, general.
func (p *Profiler) numericSubType(name string, raw []string, parsed []float64) profile.NumericSubType {
	switch {
	case matchesKeyword(name, amountKeywords):
		return profile.SubTypeAmount
	case matchesKeyword(name, percentageKeywords):
		return profile.SubTypePercentage
	case matchesKeyword(name, quantityKeywords):
		return profile.SubTypeQuantity
	}

	for _, v := range raw {
		if coerce.HasCurrencySymbol(v) {
			return profile.SubTypeAmount
		}
	}

	if inPercentRange(parsed) && anyPercentSign(raw) {
		return profile.SubTypePercentage
	}

	integral := 0
	for _, f := range parsed {
		if coerce.IsIntegral(f) {
			integral++
		}
	}
	if float64(integral)/float64(len(parsed)) > integralRatio {
		return profile.SubTypeQuantity
	}

	return profile.SubTypeGeneral
}

func inPercentRange(parsed []float64) bool {
	in01 := true
	in0100 := true
	for _, f := range parsed {
		if f < 0 || f > 1 {
			in01 = false
		}
		if f < 0 || f > 100 {
			in0100 = false
		}
	}
	return in01 || in0100
}

func anyPercentSign(raw []string) bool {
	for _, v := range raw {
		if coerce.HasPercentSign(v) {
			return true
		}
	}
	return false
}

func matchesKeyword(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func sample(values []string, n int) []string {
	if len(values) <= n {
		return append([]string(nil), values...)
	}
	return append([]string(nil), values[:n]...)
}
