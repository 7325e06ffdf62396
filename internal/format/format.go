// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format turns single result fields into display and export strings.
// Every function is total: it never panics and always returns a printable
// value, using the NA placeholder for missing data.
package format

import (
	"math"
	"strconv"
	"strings"
)

// NA is the placeholder shown for any missing or empty field.
const NA = "N/A"

// Ellipsis marks text cut by Truncate.
const Ellipsis = "..."

// Percent formats a [0,1] score as a percentage with one decimal,
// e.g. 0.953 → "95.3%". Ties round away from zero.
func Percent(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return NA
	}
	v := math.Round(x*1000) / 10
	if v == 0 {
		v = 0 // avoid "-0.0%"
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// ParsePercent reads a value produced by Percent back into a [0,1] score.
func ParsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v / 100, true
}

// OrNA returns s unless it is empty or blank, in which case it returns NA.
func OrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NA
	}
	return s
}

// JoinCodes joins classification codes with ", ", or returns NA when there
// are none.
func JoinCodes(codes []string) string {
	var kept []string
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return NA
	}
	return strings.Join(kept, ", ")
}

// SplitCodes is the inverse of JoinCodes; NA yields nil.
func SplitCodes(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == NA {
		return nil
	}
	var codes []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

// Truncate returns s unchanged when it has at most limit characters,
// otherwise its first limit characters followed by Ellipsis. Length is
// counted in runes so multi-byte text is never split mid-character.
func Truncate(s string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + Ellipsis
}

// StripEllipsis removes one trailing Ellipsis left by earlier truncation.
func StripEllipsis(s string) string {
	return strings.TrimSuffix(s, Ellipsis)
}

// Int formats a count.
func Int(n int) string {
	return strconv.Itoa(n)
}

// CharCount returns the length of s in characters.
func CharCount(s string) int {
	return len([]rune(s))
}
