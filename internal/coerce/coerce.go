// Package coerce holds the deterministic value parsers shared by the
// profiler and the orientation classifier. Expected format mismatches are
// reported through the second return value, never through errors or panics.
package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateFormats is the fixed priority list the profiler walks when testing a
// column for date-ness. First format reaching the acceptance ratio wins.
var DateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"02-Jan-2006",
	"2006年1月2日",
	"2006年1月",
	"2006-01",
	"2006/01",
	"200601",
}

// numericPattern tolerates currency prefixes, thousands separators,
// parenthesised negatives, and a trailing percent sign.
var numericPattern = regexp.MustCompile(`^\(?[-+]?[¥￥$€£]?\s*\d{1,3}(,\d{3})*(\.\d+)?\)?%?$|^\(?[-+]?[¥￥$€£]?\s*\d+(\.\d+)?([eE][-+]?\d+)?\)?%?$`)

// currencyPattern detects an explicit currency marker anywhere in the value.
var currencyPattern = regexp.MustCompile(`[¥￥$€£]|CNY|USD|EUR|GBP|JPY`)

// IsNumeric reports whether the raw value matches the tolerant numeric shape
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return numericPattern.MatchString(s)
}

// TryParseNumeric parses a currency/percent-tolerant numeric value.
// Parenthesised values are treated as negatives; a trailing percent sign is
// stripped without rescaling (the subtype chain decides what 45% means).
func TryParseNumeric(s string) (float64, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
		negative = true
	}

	for _, symbol := range []string{"¥", "￥", "$", "€", "£", "CNY", "USD", "EUR", "GBP", "JPY"} {
		clean = strings.ReplaceAll(clean, symbol, "")
	}
	clean = strings.ReplaceAll(clean, "%", "")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimSpace(clean)

	if negative {
		clean = "-" + clean
	}

	val, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// TryParseDate parses a value under one specific layout
func TryParseDate(s, layout string) (time.Time, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, clean)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LooksLikeDate reports whether any known layout parses the value
func LooksLikeDate(s string) bool {
	for _, layout := range DateFormats {
		if _, ok := TryParseDate(s, layout); ok {
			return true
		}
	}
	return false
}

// HasCurrencySymbol reports whether the value carries a currency marker
func HasCurrencySymbol(s string) bool {
	return currencyPattern.MatchString(s)
}

// HasPercentSign reports a literal percent sign in the value
func HasPercentSign(s string) bool {
	return strings.Contains(s, "%")
}

// IsIntegral reports whether a parsed numeric value has no fraction
func IsIntegral(v float64) bool {
	return v == math.Trunc(v)
}

// IsBlank reports whether a cell counts as null for profiling purposes
func IsBlank(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "-", "—", "N/A", "n/a", "null", "NULL":
		return true
	}
	return false
}
