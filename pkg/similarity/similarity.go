package similarity

import (
	"sort"
	"strings"
)

// SorensenDice computes the Sorensen-Dice coefficient over character
// bigrams of a and b. The result is in [0,1], symmetric, and 1.0 when the
// inputs are equal (including both empty). Comparison is case-insensitive.
func SorensenDice(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1.0
	}

	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0.0
	}

	counts := make(map[string]int, len(bigramsA))
	for _, bg := range bigramsA {
		counts[bg]++
	}

	overlap := 0
	for _, bg := range bigramsB {
		if counts[bg] > 0 {
			counts[bg]--
			overlap++
		}
	}

	return 2.0 * float64(overlap) / float64(len(bigramsA)+len(bigramsB))
}

func bigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	out := make([]string, 0, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		out = append(out, string(runes[i:i+2]))
	}
	return out
}

// TokenSortedSimilarity compares a and b with their tokens sorted
// alphabetically, making the score robust to word-order differences
// ("Smith, John" vs "John Smith").
func TokenSortedSimilarity(a, b string) float64 {
	return SorensenDice(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := tokenize(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:()[]\"'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// InitialMatch detects initialism matches between two names, such as
// "Dr. S" against "Dr. Smith" or "J. Smith" against "John Smith". Every
// token must match its counterpart either exactly or as a single-letter
// initial, and at least one token must match exactly.
func InitialMatch(a, b string) bool {
	tokensA := tokenize(a)
	tokensB := tokenize(b)

	if len(tokensA) == 0 || len(tokensA) != len(tokensB) {
		return false
	}

	exactSeen := false
	initialSeen := false
	for i := range tokensA {
		ta, tb := tokensA[i], tokensB[i]
		switch {
		case ta == tb:
			if len([]rune(ta)) > 1 {
				exactSeen = true
			}
		case isInitialOf(ta, tb) || isInitialOf(tb, ta):
			initialSeen = true
		default:
			return false
		}
	}

	return exactSeen && initialSeen
}

func isInitialOf(short, full string) bool {
	shortRunes := []rune(short)
	fullRunes := []rune(full)
	return len(shortRunes) == 1 && len(fullRunes) > 1 && shortRunes[0] == fullRunes[0]
}

// abbreviations maps common abbreviated tokens (without trailing dot) to
// their expanded forms for pre-comparison canonicalization.
var abbreviations = map[string]string{
	"corp": "corporation",
	"inc":  "incorporated",
	"co":   "company",
	"ltd":  "limited",
	"assn": "association",
	"dept": "department",
	"govt": "government",
	"intl": "international",
	"natl": "national",
	"atty": "attorney",
	"univ": "university",
	"v":    "versus",
	"vs":   "versus",
	"no":   "number",
}

// ExpandAbbreviations canonicalizes known domain abbreviations so that
// "Acme Corp." and "Acme Corporation" compare equal after expansion.
// Unknown tokens pass through unchanged.
func ExpandAbbreviations(text string) string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		trimmed := strings.TrimRight(strings.ToLower(f), ".")
		if expanded, ok := abbreviations[trimmed]; ok {
			out = append(out, expanded)
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
