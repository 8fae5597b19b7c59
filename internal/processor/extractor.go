// extractor.go - Field extraction from dekont OCR text

package processor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExtractionResult is the extractor output: the selected fields plus the
// intermediate candidates the analyzers score against
type ExtractionResult struct {
	Data ExtractedData

	Amounts           []decimal.Decimal // every parsed amount, text order
	NameCandidates    []string
	CompanyCandidates []string // every line carrying a company suffix

	HasAmountPattern bool // an amount pattern matched, parsable or not
	HasDatePattern   bool // a date pattern matched, valid or not
}

// ExtractFields pulls name, company, amount, date and IBAN out of text
func ExtractFields(p *PatternLibrary, cfg ScoringConfig, text string) ExtractionResult {
	var res ExtractionResult

	res.NameCandidates = p.PersonName.FindAllString(text, -1)
	res.Data.StudentName = bestNameCandidate(p, res.NameCandidates)

	res.CompanyCandidates = companyLines(p, text)
	if len(res.CompanyCandidates) > 0 {
		res.Data.CompanyName = res.CompanyCandidates[0]
	}

	amountMatches := findAmounts(p, text)
	res.HasAmountPattern = len(amountMatches) > 0
	for _, m := range amountMatches {
		if !m.valid {
			continue
		}
		res.Amounts = append(res.Amounts, m.value)
		res.Data.AmountCandidates = append(res.Data.AmountCandidates, m.value.InexactFloat64())
	}
	if len(res.Amounts) > 0 {
		res.Data.Amount = decimal.Max(res.Amounts[0], res.Amounts[1:]...).InexactFloat64()
	}

	dateMatches := findDates(p, text)
	res.HasDatePattern = len(dateMatches) > 0
	for _, m := range dateMatches {
		if !m.valid || m.year < cfg.MinPlausibleYear || m.year > cfg.MaxPlausibleYear {
			continue
		}
		res.Data.DateCandidates = append(res.Data.DateCandidates, m.iso)
		// ISO dates compare chronologically as strings
		if m.iso > res.Data.Date {
			res.Data.Date = m.iso
		}
	}

	if iban := p.IBAN.FindString(text); iban != "" {
		res.Data.IBAN = strings.Join(strings.Fields(iban), "")
	}

	return res
}

// bestNameCandidate scores candidates against the name lexicons.
// Ties keep the earlier candidate.
func bestNameCandidate(p *PatternLibrary, candidates []string) string {
	best, bestScore := "", -1
	for _, candidate := range candidates {
		score := 0
		for _, token := range strings.Fields(candidate) {
			lower := turkishLower(token)
			if _, ok := p.FirstNames[lower]; ok {
				score += 2
			}
			if _, ok := p.Surnames[lower]; ok {
				score += 2
			}
			if utf8.RuneCountInString(token) > 2 {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best
}

// companyLines returns, verbatim and in order, the lines that contain a
// company suffix
func companyLines(p *PatternLibrary, text string) []string {
	var lines []string
	for _, line := range splitLines(text) {
		folded := foldTurkish(line)
		for _, re := range p.CompanySuffixes {
			if re.MatchString(folded) {
				lines = append(lines, line)
				break
			}
		}
	}
	return lines
}

type amountMatch struct {
	pos   int
	value decimal.Decimal
	valid bool
}

// findAmounts runs every amount pattern. A number matched by several
// patterns ("₺1.500,00 TL") is reported once.
func findAmounts(p *PatternLibrary, text string) []amountMatch {
	seen := make(map[int]bool)
	var matches []amountMatch
	for _, re := range p.Amounts {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2], loc[3]
			if seen[start] {
				continue
			}
			seen[start] = true
			value, err := ParseAmount(text[start:end])
			matches = append(matches, amountMatch{pos: start, value: value, valid: err == nil})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	return matches
}

// ParseAmount converts a Turkish formatted number to a decimal. A trailing
// two-digit group after '.' or ',' is the fraction; every other separator
// groups thousands. Non-positive values are rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	var intPart, fraction string
	if n := len(s); n >= 3 && (s[n-3] == '.' || s[n-3] == ',') && isDigits(s[n-2:]) {
		intPart, fraction = s[:n-3], s[n-2:]
	} else {
		intPart = s
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" || !isDigits(intPart) {
		return decimal.Zero, fmt.Errorf("not an amount: %q", raw)
	}
	if fraction != "" {
		intPart += "." + fraction
	}

	value, err := decimal.NewFromString(intPart)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if !value.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount %q is not positive", raw)
	}
	return value, nil
}

type dateMatch struct {
	pos   int
	iso   string
	year  int
	valid bool
}

// findDates runs every date pattern and normalizes matches to ISO form.
// Matches with an impossible month or day are kept with valid=false.
func findDates(p *PatternLibrary, text string) []dateMatch {
	type layout struct {
		re               *regexp.Regexp
		day, month, year int // submatch index
		twoDigitYear     bool
	}
	layouts := []layout{
		{re: p.DatesDMY, day: 1, month: 2, year: 3},
		{re: p.DatesDMYShort, day: 1, month: 2, year: 3, twoDigitYear: true},
		{re: p.DatesYMD, day: 3, month: 2, year: 1},
	}

	var matches []dateMatch
	for _, l := range layouts {
		for _, sm := range l.re.FindAllStringSubmatchIndex(text, -1) {
			group := func(i int) string { return text[sm[2*i]:sm[2*i+1]] }
			iso, year, ok := normalizeDate(group(l.day), group(l.month), group(l.year), l.twoDigitYear)
			matches = append(matches, dateMatch{pos: sm[0], iso: iso, year: year, valid: ok})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	return matches
}

// NormalizeDate returns the ISO form of the first date in fragment.
// Years are not bounded here; plausibility is the extractor's concern.
func NormalizeDate(fragment string) (string, bool) {
	for _, m := range findDates(DefaultPatterns(), fragment) {
		if m.valid {
			return m.iso, true
		}
	}
	return "", false
}

func normalizeDate(dayStr, monthStr, yearStr string, twoDigitYear bool) (string, int, bool) {
	day, err1 := strconv.Atoi(dayStr)
	month, err2 := strconv.Atoi(monthStr)
	year, err3 := strconv.Atoi(yearStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", 0, false
	}
	if twoDigitYear {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", year, false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), year, true
}

// turkishLower lowercases with Turkish rules (I→ı, İ→i). A Caser keeps
// state, so one is built per call.
func turkishLower(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

var asciiFolder = strings.NewReplacer("ı", "i", "ş", "s", "ç", "c", "ğ", "g", "ö", "o", "ü", "u")

// foldTurkish lowercases and drops Turkish diacritics, so OCR output with or
// without dots ("KOOPERATIF", "İPTAL", "VOID") compares equal to the lexicons
func foldTurkish(s string) string {
	return asciiFolder.Replace(turkishLower(s))
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
