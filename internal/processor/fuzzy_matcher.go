// fuzzy_matcher.go - Fuzzy matching of student and company names
package processor

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// MatchResult represents the result of matching one expected value against the text
type MatchResult struct {
	Score     float64 `json:"score"`               // 0-1
	Method    string  `json:"method"`              // contains, token_overlap, fuzzy, not_found
	Candidate string  `json:"candidate,omitempty"` // best candidate for the fuzzy method
}

// MatchScore compares expected against the OCR text. An exact (normalized)
// containment scores 1.0; otherwise the better of token overlap and the
// edit-distance similarity to the closest candidate wins.
func MatchScore(text, expected string, candidates []string) MatchResult {
	normalizedExpected := normalizeForMatch(expected)
	if normalizedExpected == "" {
		return MatchResult{Method: "not_found"}
	}
	normalizedText := normalizeForMatch(text)

	if strings.Contains(normalizedText, normalizedExpected) {
		return MatchResult{Score: 1.0, Method: "contains"}
	}

	best := MatchResult{Method: "not_found"}
	if overlap := tokenOverlap(normalizedText, normalizedExpected); overlap > 0 {
		best = MatchResult{Score: overlap, Method: "token_overlap"}
	}

	for _, candidate := range candidates {
		normalizedCandidate := normalizeForMatch(candidate)
		if normalizedCandidate == "" {
			continue
		}
		similarity := similarity(normalizedExpected, normalizedCandidate)
		if similarity > best.Score {
			best = MatchResult{Score: similarity, Method: "fuzzy", Candidate: candidate}
		}
	}

	return best
}

// normalizeForMatch lowercases with Turkish rules, drops punctuation and
// collapses whitespace
func normalizeForMatch(s string) string {
	s = turkishLower(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// tokenOverlap is the fraction of expected tokens longer than two runes that
// occur as substrings of text
func tokenOverlap(text, expected string) float64 {
	total, found := 0, 0
	for _, token := range strings.Fields(expected) {
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}
		total++
		if strings.Contains(text, token) {
			found++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(found) / float64(total)
}

// similarity is 1 - levenshtein/maxLen, measured in runes
func similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	maxLen := math.Max(float64(utf8.RuneCountInString(s1)), float64(utf8.RuneCountInString(s2)))
	if maxLen == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(s1, s2)
	return math.Max(0, (maxLen-float64(distance))/maxLen)
}

// assessMatch turns a match score into credit. label names the field in
// flag and warning texts ("student name", "company name").
func assessMatch(label, expected string, match MatchResult, credit MatchCredit) ComponentFinding {
	var f ComponentFinding
	switch {
	case match.Score > credit.FullThreshold:
		f.add(credit.Full)
	case match.Score > credit.PartialThreshold:
		f.add(credit.Partial)
		f.warn("partial %s match: expected %q (%.0f%%)", label, expected, match.Score*100)
	default:
		f.flag("%s mismatch: expected %q not found (%.0f%%)", label, expected, match.Score*100)
	}
	return f
}
