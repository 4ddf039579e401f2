package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// Locale selects how ambiguous comma-containing numbers are read. The auto
// mode preserves the legacy guessing heuristic; callers that know the source
// locale should pass "us" or "eu" instead.
const (
	LocaleAuto = "auto"
	LocaleUS   = "us"
	LocaleEU   = "eu"
)

// euroDecimalRe matches tokens like "0,514": an integer part, a comma, and a
// 2-3 digit fraction. Tokens like "1,234" also match, which is wrong when the
// source data is US-formatted; that ambiguity is unresolvable without a
// declared locale, hence the explicit locale parameter.
var euroDecimalRe = regexp.MustCompile(`^\d+,\d{2,3}$`)

var euAnyDecimalRe = regexp.MustCompile(`^\d+(\.\d{3})*,\d+$`)

// NormalizeCell rewrites a single cell's numeric text for the given locale.
// Non-numeric cells pass through unchanged.
func NormalizeCell(token, locale string) string {
	token = strings.TrimSpace(token)
	switch locale {
	case LocaleEU:
		if euAnyDecimalRe.MatchString(token) {
			token = strings.ReplaceAll(token, ".", "")
			return strings.Replace(token, ",", ".", 1)
		}
		return token
	case LocaleUS:
		return token
	default:
		if euroDecimalRe.MatchString(token) {
			return strings.Replace(token, ",", ".", 1)
		}
		return token
	}
}

// ParseAmount coerces a cell into a spend amount. Currency symbols and group
// separators are stripped before parsing; unparseable input yields 0.
func ParseAmount(raw, locale string) float64 {
	token := NormalizeCell(raw, locale)
	cleaned := stripNonNumeric(token)
	if cleaned == "" {
		return 0
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return val
}

// stripNonNumeric keeps digits, at most one dot and a leading minus. Commas
// surviving locale normalization are treated as group separators.
func stripNonNumeric(s string) string {
	var b strings.Builder
	seenDot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "-" || out == "." || out == "-." {
		return ""
	}
	return out
}
