// financial_validator.go - Currency marker and amount checks

package processor

import (
	"github.com/shopspring/decimal"
)

// ValidateFinancial checks the currency marker, the presence of an amount and,
// when expectedAmount > 0, how close the nearest candidate is to it
func ValidateFinancial(p *PatternLibrary, cfg ScoringConfig, text string, amounts []decimal.Decimal, expectedAmount float64) ComponentFinding {
	var f ComponentFinding

	if p.CurrencyMark.MatchString(text) {
		f.add(cfg.CurrencyMarkerReward)
	} else {
		f.warn("no currency marker")
	}

	if len(amounts) == 0 {
		f.flag("no valid amount found")
		return f
	}
	f.add(cfg.AmountPresentReward)

	if expectedAmount <= 0 {
		return f
	}

	expected := decimal.NewFromFloat(expectedAmount)
	closest := closestAmount(amounts, expected)
	diff := closest.Sub(expected).Abs()

	exactBand := expected.Mul(decimal.NewFromFloat(cfg.AmountExactTolerance))
	partialBand := expected.Mul(decimal.NewFromFloat(cfg.AmountPartialTolerance))

	switch {
	case diff.LessThanOrEqual(exactBand):
		f.add(cfg.AmountExactReward)
	case diff.LessThanOrEqual(partialBand):
		f.add(cfg.AmountPartialReward)
		f.warn("amount differs slightly: found %s, expected %s", closest.StringFixed(2), expected.StringFixed(2))
	default:
		f.flag("significant amount mismatch: Δ%s (found %s, expected %s)",
			diff.StringFixed(2), closest.StringFixed(2), expected.StringFixed(2))
	}
	return f
}

// closestAmount returns the candidate with the smallest absolute difference.
// Ties keep the earlier candidate.
func closestAmount(amounts []decimal.Decimal, expected decimal.Decimal) decimal.Decimal {
	best := amounts[0]
	bestDiff := best.Sub(expected).Abs()
	for _, a := range amounts[1:] {
		if d := a.Sub(expected).Abs(); d.LessThan(bestDiff) {
			best, bestDiff = a, d
		}
	}
	return best
}
