// patterns.go - Regular expressions and lexicons for Turkish payment receipts
//
// Every field is read-only after DefaultPatterns() returns. Go regexps keep no
// match state between calls, so one PatternLibrary is shared by all goroutines.

package processor

import (
	"regexp"
	"sync"
)

// amountNumber matches 1.500,00 / 1,500.00 / 1500,00 / 1500. The grouped
// alternative comes first so "1.500,00" is never split into "1.50".
const amountNumber = `\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{2})?|\d+(?:[.,]\d{2})?`

// PatternLibrary is the immutable set of patterns the extractor and analyzers use
type PatternLibrary struct {
	Amounts       []*regexp.Regexp // capture group 1 is the number
	CurrencyMark  *regexp.Regexp
	DatesDMY      *regexp.Regexp // DD/MM/YYYY
	DatesDMYShort *regexp.Regexp // DD/MM/YY
	DatesYMD      *regexp.Regexp // YYYY/MM/DD
	IBAN          *regexp.Regexp
	PersonName    *regexp.Regexp

	CompanySuffixes []*regexp.Regexp
	SuspiciousTerms []string
	FirstNames      map[string]struct{}
	Surnames        map[string]struct{}

	foldedTerms []string // SuspiciousTerms through foldTurkish, same order
}

var (
	defaultPatterns     *PatternLibrary
	defaultPatternsOnce sync.Once
)

// DefaultPatterns returns the process-wide pattern library, compiled on first use
func DefaultPatterns() *PatternLibrary {
	defaultPatternsOnce.Do(func() {
		defaultPatterns = newPatternLibrary()
	})
	return defaultPatterns
}

func newPatternLibrary() *PatternLibrary {
	p := &PatternLibrary{
		Amounts: []*regexp.Regexp{
			regexp.MustCompile(`₺\s*(` + amountNumber + `)`),
			regexp.MustCompile(`\b(` + amountNumber + `)\s*₺`),
			regexp.MustCompile(`(?i)\b(` + amountNumber + `)\s*TL\b`),
			regexp.MustCompile(`(?i)\b(` + amountNumber + `)\s*lira`),
		},
		CurrencyMark:  regexp.MustCompile(`(?i)₺|\bTL\b|\blira`),
		DatesDMY:      regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})\b`),
		DatesDMYShort: regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2})\b`),
		DatesYMD:      regexp.MustCompile(`\b(\d{4})[/.\-](\d{1,2})[/.\-](\d{1,2})\b`),
		IBAN:          regexp.MustCompile(`\bTR(?:\s?\d){24}\b`),
		PersonName:    regexp.MustCompile(`[A-ZÇĞİÖŞÜ][a-zçğıöşü]+(?:[ \t]+[A-ZÇĞİÖŞÜ][a-zçğıöşü]+)+`),

		SuspiciousTerms: []string{
			"sahte", "kopya", "duplicate", "copy", "düzeltme", "correction",
			"iptal", "cancel", "void", "test", "örnek", "sample",
		},
		FirstNames: toSet(
			"ahmet", "mehmet", "mustafa", "ali", "hüseyin", "hasan", "ibrahim", "ismail",
			"osman", "yusuf", "murat", "ömer", "emre", "burak", "can", "cem", "kerem",
			"ayşe", "fatma", "emine", "hatice", "zeynep", "elif", "merve", "esra",
			"özge", "büşra", "selin", "deniz", "ece", "gizem", "derya",
		),
		Surnames: toSet(
			"yılmaz", "kaya", "demir", "şahin", "çelik", "yıldız", "yıldırım",
			"öztürk", "aydın", "özdemir", "arslan", "doğan", "kılıç", "aslan",
			"çetin", "kara", "koç", "kurt", "özkan", "şimşek", "polat", "korkmaz",
		),
	}

	// Longest first so "ltd.şti" is reported before "ltd"
	suffixes := []string{
		"anonim şirket", "limited şirket", "ltd.şti", "kooperatif", "a.ş.",
		"dernek", "vakıf", "koop", "ltd", "şti", "a.ş",
	}
	// Suffixes are matched against foldTurkish output
	for _, s := range suffixes {
		// Word boundaries are Unicode-aware here: \b only knows ASCII words,
		// which would let "ödenmiştir" match "şti".
		p.CompanySuffixes = append(p.CompanySuffixes,
			regexp.MustCompile(`(?:^|[^\p{L}\p{N}])`+regexp.QuoteMeta(foldTurkish(s))+`(?:$|[^\p{L}\p{N}])`))
	}
	for _, term := range p.SuspiciousTerms {
		p.foldedTerms = append(p.foldedTerms, foldTurkish(term))
	}
	return p
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
