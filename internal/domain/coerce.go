package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// nonNumericRe matches every character that cannot be part of a decimal or
// exponent literal. Units, degree signs and stray spaces are stripped with it.
var nonNumericRe = regexp.MustCompile(`[^0-9+\-.eE]`)

// CoerceNumber turns a raw payload value into a finite number.
// It returns nil for absent values, "no data" sentinels, unparseable strings,
// non-finite results, maps and slices. Booleans count as 1 and 0.
func CoerceNumber(v any) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case string:
		return parseNumericString(n)
	case json.Number:
		return parseNumericString(string(n))
	case bool:
		if n {
			return finite(1)
		}
		return finite(0)
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return finite(float64(n))
	case int8:
		return finite(float64(n))
	case int16:
		return finite(float64(n))
	case int32:
		return finite(float64(n))
	case int64:
		return finite(float64(n))
	case uint:
		return finite(float64(n))
	case uint8:
		return finite(float64(n))
	case uint16:
		return finite(float64(n))
	case uint32:
		return finite(float64(n))
	case uint64:
		return finite(float64(n))
	default:
		return nil
	}
}

// parseNumericString handles locale-formatted strings such as "23,5°C".
// Only the first comma is treated as a decimal separator.
func parseNumericString(s string) *float64 {
	s = strings.TrimSpace(s)
	if isSentinel(s) {
		return nil
	}

	cleaned := nonNumericRe.ReplaceAllString(strings.Replace(s, ",", ".", 1), "")
	if cleaned == "" {
		return nil
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return finite(v)
}

// isSentinel reports whether s is one of the provider's "no data" markers.
func isSentinel(s string) bool {
	switch s {
	case "", "--", "—":
		return true
	}
	return strings.EqualFold(s, "na") || strings.EqualFold(s, "null")
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
