package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	yearPattern = regexp.MustCompile(`\b(19[5-9]\d|20\d{2})\b`)

	// "12.500": one to three leading digits, then a single dotted group of three.
	dotGroupPattern = regexp.MustCompile(`^[1-9]\d{0,2}\.\d{3}$`)
)

// ParseAmount reads an amount written the French or the accounting way:
// "1 234,5", "1.234.567", "(12 000)", "-8 500 €". Non-numeric cells such as
// "N/A" or "—" return ok=false.
func ParseAmount(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer(
		"€", "", "EUR", "", "eur", "",
		" ", "", "\u00a0", "", "\u202f", "", "'", "",
	).Replace(s)
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−") {
		negative = !negative
		s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "−")
	}
	if s == "" {
		return 0, false
	}

	s = normalizeSeparators(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// normalizeSeparators turns French or English digit grouping into a plain
// Go float literal. With both separators present, the last one is decimal.
// A lone comma is decimal; repeated commas or dots are thousands separators.
// A lone dot followed by exactly three digits groups thousands ("12.500"),
// any other lone dot is decimal ("12.5", "0.125").
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1, dotGroupPattern.MatchString(s):
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// parseYear extracts a fiscal year from a header such as "2023",
// "Exercice 2023" or "31/12/2023".
func parseYear(text string) (int, bool) {
	m := yearPattern.FindAllString(text, -1)
	if len(m) == 0 {
		return 0, false
	}
	y, err := strconv.Atoi(m[len(m)-1])
	if err != nil {
		return 0, false
	}
	return y, true
}
