// confidence_calculator.go - Weighted reliability score and recommendation
//
// Combines the component findings into authenticity, consistency and overall
// reliability scores, then derives the recommendation from fixed thresholds.

package processor

import (
	"fmt"
	"math"
	"strings"

	"github.com/stajtakip/dekont_verifier/internal/common"
)

// ComponentFindings collects every analyzer output for one document
type ComponentFindings struct {
	NameChecked    bool
	NameMatch      MatchResult
	Name           ComponentFinding
	CompanyChecked bool
	CompanyMatch   MatchResult
	Company        ComponentFinding

	Financial  ComponentFinding
	Security   SecurityFinding
	Structural ComponentFinding
	Date       ComponentFinding
}

// CalculateReliability aggregates the findings into the final result
func CalculateReliability(
	cfg ScoringConfig,
	extracted ExtractedData,
	findings ComponentFindings,
	reqCtx *common.RequestContext,
) AnalysisResult {

	matchDelta := findings.Name.ScoreDelta + findings.Company.ScoreDelta

	authenticity := clamp01(cfg.AuthenticityBase + matchDelta +
		findings.Financial.ScoreDelta + findings.Security.ScoreDelta)
	consistency := clamp01(cfg.ConsistencyBase + matchDelta +
		findings.Structural.ScoreDelta + findings.Date.ScoreDelta)
	quality := clamp01(findings.Security.QualityScore)

	// Flags and warnings keep component order: name, company, financial,
	// security, structural, date
	ordered := []ComponentFinding{
		findings.Name, findings.Company, findings.Financial,
		findings.Security.ComponentFinding, findings.Structural, findings.Date,
	}
	flags := []string{}
	warnings := []string{}
	for _, f := range ordered {
		flags = append(flags, f.Flags...)
		warnings = append(warnings, f.Warnings...)
	}

	// Consistency issues are everything that compares the document with
	// the payment record or its expected layout
	issues := []string{}
	for _, f := range []ComponentFinding{findings.Name, findings.Company, findings.Financial, findings.Structural, findings.Date} {
		issues = append(issues, f.Flags...)
	}
	issues = append(issues, findings.Date.Warnings...)

	overall := cfg.AuthenticityWeight*authenticity +
		cfg.ConsistencyWeight*consistency +
		cfg.QualityWeight*quality -
		(float64(len(flags))*cfg.FlagPenalty + float64(len(warnings))*cfg.WarningPenalty)
	overall = roundScore(clamp01(overall))

	recommendation := Recommend(cfg, overall, len(flags), len(warnings))
	level := determineReliabilityLevel(overall)

	result := AnalysisResult{
		Authenticity: Authenticity{
			Score:      roundScore(authenticity),
			Flags:      flags,
			Confidence: cfg.Confidence,
		},
		DataValidation: DataValidation{
			ExtractedData: extracted,
			Consistency: Consistency{
				Score:  roundScore(consistency),
				Issues: issues,
			},
		},
		SecurityAssessment: SecurityAssessment{
			ForgeryRisk:       roundScore(clamp01(1 - authenticity)),
			TamperingDetected: findings.Security.TamperingDetected,
			QualityScore:      roundScore(quality),
			Warnings:          warnings,
		},
		OverallReliability: overall,
		ReliabilityLevel:   level,
		Recommendation:     recommendation,
		ComponentScores: ComponentScores{
			NameMatch:    roundScore(findings.NameMatch.Score),
			CompanyMatch: roundScore(findings.CompanyMatch.Score),
			Financial:    roundScore(findings.Financial.ScoreDelta),
			Security:     roundScore(findings.Security.ScoreDelta),
			Structural:   roundScore(findings.Structural.ScoreDelta),
			Date:         roundScore(findings.Date.ScoreDelta),
		},
	}
	result.Reasoning = generateReasoning(cfg, result, findings)

	reqCtx.LogInfo("📊 Reliability Calculation:")
	reqCtx.LogInfo("  ├─ Authenticity: %.2f (weight: %.0f%%)", authenticity, cfg.AuthenticityWeight*100)
	reqCtx.LogInfo("  ├─ Consistency: %.2f (weight: %.0f%%)", consistency, cfg.ConsistencyWeight*100)
	reqCtx.LogInfo("  ├─ Quality: %.2f (weight: %.0f%%)", quality, cfg.QualityWeight*100)
	reqCtx.LogInfo("  ├─ Flags: %d, Warnings: %d", len(flags), len(warnings))
	reqCtx.LogInfo("  └─ Overall: %.2f (%s) → %s", overall, level, recommendation)

	return result
}

// Recommend derives the recommendation from the reliability score and the
// flag/warning counts only
func Recommend(cfg ScoringConfig, reliability float64, flagCount, warningCount int) Recommendation {
	if flagCount > cfg.RejectFlagCount || reliability < cfg.RejectReliability {
		return RecommendReject
	}
	if flagCount > cfg.ReviewFlagCount || warningCount > cfg.ReviewWarningCount || reliability < cfg.ApproveMinReliability {
		return RecommendManualReview
	}
	return RecommendApprove
}

// determineReliabilityLevel buckets the overall reliability for display
func determineReliabilityLevel(score float64) string {
	if score >= 0.95 {
		return "very_high"
	} else if score >= 0.85 {
		return "high"
	} else if score >= 0.70 {
		return "medium"
	} else if score >= 0.50 {
		return "low"
	} else {
		return "very_low"
	}
}

// generateReasoning renders the human readable explanation of the decision
func generateReasoning(cfg ScoringConfig, result AnalysisResult, findings ComponentFindings) []string {
	flagCount, warningCount := result.FlagCount(), result.WarningCount()
	reasoning := []string{
		fmt.Sprintf("Overall reliability %.0f%% (%s)", result.OverallReliability*100, result.ReliabilityLevel),
		fmt.Sprintf("%d hard flag(s), %d warning(s)", flagCount, warningCount),
	}

	switch result.Recommendation {
	case RecommendReject:
		if flagCount > cfg.RejectFlagCount {
			reasoning = append(reasoning, fmt.Sprintf("Rejected: %d hard flags exceed the limit of %d", flagCount, cfg.RejectFlagCount))
		} else {
			reasoning = append(reasoning, fmt.Sprintf("Rejected: reliability below %.0f%%", cfg.RejectReliability*100))
		}
	case RecommendManualReview:
		var reasons []string
		if flagCount > cfg.ReviewFlagCount {
			reasons = append(reasons, fmt.Sprintf("%d hard flags", flagCount))
		}
		if warningCount > cfg.ReviewWarningCount {
			reasons = append(reasons, fmt.Sprintf("%d warnings", warningCount))
		}
		if result.OverallReliability < cfg.ApproveMinReliability {
			reasons = append(reasons, fmt.Sprintf("reliability below %.0f%%", cfg.ApproveMinReliability*100))
		}
		reasoning = append(reasoning, "Manual review required: "+strings.Join(reasons, ", "))
	default:
		reasoning = append(reasoning, "Approval suggested: no blocking issues found, reviewer confirmation still required")
	}

	if findings.NameChecked {
		reasoning = append(reasoning, fmt.Sprintf("Student name match %.0f%% (%s)", findings.NameMatch.Score*100, findings.NameMatch.Method))
	}
	if findings.CompanyChecked {
		reasoning = append(reasoning, fmt.Sprintf("Company name match %.0f%% (%s)", findings.CompanyMatch.Score*100, findings.CompanyMatch.Method))
	}
	if findings.Security.TamperingDetected {
		reasoning = append(reasoning, "Possible tampering: "+strings.Join(findings.Security.MatchedTerms, ", "))
	}
	return reasoning
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// roundScore rounds to 4 decimals so float noise never leaks into the output
func roundScore(v float64) float64 {
	return math.Round(v*10000) / 10000
}
