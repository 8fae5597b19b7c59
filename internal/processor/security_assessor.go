// security_assessor.go - Tamper vocabulary and OCR text quality heuristics

package processor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SecurityFinding extends ComponentFinding with the separately reported
// quality sub-score
type SecurityFinding struct {
	ComponentFinding
	QualityScore      float64  `json:"quality_score"` // unclamped
	TamperingDetected bool     `json:"tampering_detected"`
	MatchedTerms      []string `json:"matched_terms,omitempty"`
}

const turkishDiacritics = "çğıöşüÇĞİÖŞÜ"

// AssessSecurity scans for tamper vocabulary and estimates text quality
func AssessSecurity(p *PatternLibrary, cfg ScoringConfig, text string) SecurityFinding {
	f := SecurityFinding{QualityScore: cfg.QualityBase}
	f.add(cfg.SecurityBase)

	// Tamper vocabulary
	folded := foldTurkish(text)
	for i, term := range p.SuspiciousTerms {
		if strings.Contains(folded, p.foldedTerms[i]) {
			f.MatchedTerms = append(f.MatchedTerms, term)
		}
	}
	if len(f.MatchedTerms) > 0 {
		f.TamperingDetected = true
		f.flag("suspicious terms: %s", strings.Join(f.MatchedTerms, ", "))
		f.add(cfg.TamperPenalty)
	} else {
		f.add(cfg.CleanVocabularyReward)
	}

	// Text quality
	words := strings.Fields(text)
	totalRunes := utf8.RuneCountInString(text)
	if len(words) > 0 && totalRunes > 0 {
		density := float64(totalRunes) / float64(len(words))
		if density < cfg.LowDensityThreshold {
			f.QualityScore += cfg.LowDensityPenalty
			f.warn("low character density (%.1f chars/word), OCR quality may be poor", density)
		}

		special := 0
		for _, r := range text {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
				special++
			}
		}
		if ratio := float64(special) / float64(totalRunes); ratio > cfg.SpecialCharThreshold {
			f.QualityScore += cfg.SpecialCharPenalty
			f.warn("high special character ratio (%.0f%%)", ratio*100)
		}

		wordRunes := 0
		for _, w := range words {
			wordRunes += utf8.RuneCountInString(w)
		}
		mean := float64(wordRunes) / float64(len(words))
		if mean < cfg.MinMeanWordLength || mean > cfg.MaxMeanWordLength {
			f.QualityScore += cfg.WordLengthPenalty
			f.warn("abnormal mean word length (%.1f)", mean)
		}
	}

	// Repetition
	if repeated := repeatedWords(turkishLower(text), cfg.RepeatedWordMinLength, cfg.RepeatedWordMinCount); len(repeated) > cfg.MaxRepeatedWords {
		f.flag("abnormal repetition: %s", strings.Join(repeated, ", "))
		f.add(cfg.RepetitionPenalty)
	} else {
		f.add(cfg.NoRepetitionReward)
	}

	if totalRunes > 0 {
		diacritics := 0
		for _, r := range text {
			if strings.ContainsRune(turkishDiacritics, r) {
				diacritics++
			}
		}
		if float64(diacritics)/float64(totalRunes) > cfg.DiacriticRatio {
			f.add(cfg.DiacriticReward)
		}
	}

	return f
}

// repeatedWords returns, sorted, the distinct words longer than minLen runes
// that occur more than minCount times
func repeatedWords(lower string, minLen, minCount int) []string {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if utf8.RuneCountInString(w) > minLen {
			counts[w]++
		}
	}

	var repeated []string
	for w, c := range counts {
		if c > minCount {
			repeated = append(repeated, w)
		}
	}
	sort.Strings(repeated)
	return repeated
}
