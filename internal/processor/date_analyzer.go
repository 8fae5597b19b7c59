// date_analyzer.go - Checks the receipt date against the expected payment period

package processor

import (
	"fmt"
	"strings"
)

// AnalyzeDates checks that a plausible date exists and, when the period is
// known, that one of the dates falls in it
func AnalyzeDates(cfg ScoringConfig, dates []string, expected ExpectedMetadata) ComponentFinding {
	var f ComponentFinding

	if len(dates) == 0 {
		f.flag("no valid date format")
		return f
	}
	f.add(cfg.ValidDateReward)

	if !expected.HasPeriod() {
		return f
	}

	yearPrefix := fmt.Sprintf("%04d-", expected.Year)
	periodPrefix := fmt.Sprintf("%04d-%02d-", expected.Year, expected.Month)
	yearMatch := false
	for _, d := range dates {
		if strings.HasPrefix(d, periodPrefix) {
			f.add(cfg.PeriodMatchReward)
			return f
		}
		if strings.HasPrefix(d, yearPrefix) {
			yearMatch = true
		}
	}

	if yearMatch {
		f.warn("year matches, month differs (expected %02d/%04d)", expected.Month, expected.Year)
		f.add(cfg.YearOnlyReward)
	} else {
		f.flag("date outside expected period %02d/%04d", expected.Month, expected.Year)
	}
	return f
}
