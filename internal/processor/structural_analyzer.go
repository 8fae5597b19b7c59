// structural_analyzer.go - Presence of the structural elements of a dekont

package processor

import "strings"

// AnalyzeStructure rewards the elements a bank receipt normally carries
func AnalyzeStructure(cfg ScoringConfig, text string, ext ExtractionResult) ComponentFinding {
	var f ComponentFinding

	if ext.HasDatePattern {
		f.add(cfg.DatePatternReward)
	} else {
		f.flag("no date format found")
	}

	if ext.HasAmountPattern {
		f.add(cfg.AmountPatternReward)
	} else {
		f.flag("no amount format found")
	}

	if ext.Data.IBAN != "" {
		f.add(cfg.IBANReward)
	}

	lines := nonBlankLines(text)
	switch {
	case lines > cfg.MinLines && lines < cfg.MaxLines:
		f.add(cfg.LineCountReward)
	case lines <= cfg.MinLines:
		// OCR collaborators often flatten a receipt to one line, so this is soft
		f.warn("too few text lines (%d)", lines)
	}

	return f
}

func nonBlankLines(text string) int {
	n := 0
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
