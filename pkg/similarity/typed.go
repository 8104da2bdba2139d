package similarity

import (
	"math"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// NormalizeCaseNumber canonicalizes a court case number for comparison:
// uppercased, dots stripped, runs of spaces, slashes and underscores
// collapsed to single dashes ("2024 cv 001" -> "2024-CV-001").
func NormalizeCaseNumber(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")

	var b strings.Builder
	b.Grow(len(s))
	lastDash := true
	for _, r := range s {
		switch r {
		case ' ', '\t', '-', '/', '_':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		default:
			b.WriteRune(r)
			lastDash = false
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// NormalizeDate parses s with dateparse and renders it as an ISO date
// (2006-01-02). Unparseable input is returned trimmed, never an error.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}

// AmountsMatch reports whether two monetary amounts are equal within the
// given relative tolerance. Currency symbols, commas and whitespace are
// ignored. Malformed input never panics, it just fails the match.
func AmountsMatch(a, b string, tolerance float64) bool {
	va, okA := parseAmount(a)
	vb, okB := parseAmount(b)
	if !okA || !okB {
		return false
	}
	if va == vb {
		return true
	}
	if tolerance < 0 {
		return false
	}

	scale := math.Max(math.Abs(va), math.Abs(vb))
	if scale < 1 {
		scale = 1
	}
	return math.Abs(va-vb) <= tolerance*scale
}

func parseAmount(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',', r == ' ', r == '$', r == '€', r == '£':
			// separators and currency marks
		default:
			return 0, false
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LocationContains reports whether location a contains location b as a
// whole-token sequence ("New York City" contains "New York"). The check
// is asymmetric; callers test both directions when needed.
func LocationContains(a, b string) bool {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 || len(tokensB) > len(tokensA) {
		return false
	}

	for start := 0; start+len(tokensB) <= len(tokensA); start++ {
		match := true
		for i := range tokensB {
			if tokensA[start+i] != tokensB[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
