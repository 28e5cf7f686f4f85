package utils

import (
	"strconv"
	"strings"
)

// ParseFloat parses upstream monetary text permissively. Both "1234.56" and
// the Brazilian "1.234,56" are accepted; anything unparsable yields 0.
func ParseFloat(valStr string) float64 {
	valStr = strings.TrimSpace(valStr)
	if valStr == "" {
		return 0.0
	}
	cleanStr := valStr
	if strings.Contains(cleanStr, ",") {
		// Remove thousands separator (.) and replace decimal separator (,) with (.)
		cleanStr = strings.ReplaceAll(cleanStr, ".", "")
		cleanStr = strings.ReplaceAll(cleanStr, ",", ".")
	}
	val, err := strconv.ParseFloat(cleanStr, 64)
	if err != nil {
		return 0.0
	}
	return val
}

// WithCheckDigit renders bank identifiers as "number-dv". Without a number the
// descriptor is empty; without a check digit the number is returned alone.
func WithCheckDigit(number, dv string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	if dv = strings.TrimSpace(dv); dv != "" {
		return number + "-" + dv
	}
	return number
}

// Chunk splits ids into consecutive batches of at most size elements.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// Unique keeps the first occurrence of each non-empty id.
func Unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
