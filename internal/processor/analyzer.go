// analyzer.go - Dekont analysis pipeline and batch runner

package processor

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/stajtakip/dekont_verifier/internal/common"
)

// Analyzer runs the reliability pipeline. It holds no mutable state, so one
// Analyzer can serve any number of goroutines.
type Analyzer struct {
	cfg      ScoringConfig
	patterns *PatternLibrary
}

// NewAnalyzer creates an analyzer with the given scoring configuration
func NewAnalyzer(cfg ScoringConfig) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	return &Analyzer{cfg: cfg, patterns: DefaultPatterns()}, nil
}

var (
	defaultAnalyzer     *Analyzer
	defaultAnalyzerOnce sync.Once
)

// Analyze scores one dekont with the default configuration
func Analyze(rawText string, expected ExpectedMetadata) AnalysisResult {
	defaultAnalyzerOnce.Do(func() {
		a, err := NewAnalyzer(DefaultScoringConfig())
		if err != nil {
			panic(err) // default configuration is constant
		}
		defaultAnalyzer = a
	})
	return defaultAnalyzer.Analyze(AnalysisInput{RawText: rawText, Expected: expected}, nil)
}

// Config returns the scoring configuration in use
func (a *Analyzer) Config() ScoringConfig {
	return a.cfg
}

// Analyze scores one dekont. It never panics: a failure inside the pipeline
// re-runs it on sanitized input, and if that fails too a degraded result
// is returned.
func (a *Analyzer) Analyze(input AnalysisInput, reqCtx *common.RequestContext) (result AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			reqCtx.EndStep("failed", "", fmt.Errorf("panic: %v", r))
			reqCtx.LogWarning("analysis failed (%v), retrying with sanitized input", r)
			result = a.fallback(input, reqCtx)
		}
	}()
	return a.run(input, reqCtx)
}

func (a *Analyzer) fallback(input AnalysisInput, reqCtx *common.RequestContext) (result AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			reqCtx.EndStep("failed", "", fmt.Errorf("panic: %v", r))
			reqCtx.LogError("analysis failed on sanitized input: %v", r)
			result = degradedResult(a.cfg)
		}
	}()

	reqCtx.StartStep("sanitize_input")
	sanitized := SanitizeInput(input)
	reqCtx.EndStep("success", "", nil)

	return a.run(sanitized, reqCtx)
}

func (a *Analyzer) run(input AnalysisInput, reqCtx *common.RequestContext) AnalysisResult {
	text, expected := input.RawText, input.Expected

	reqCtx.StartStep("field_extraction")
	ext := ExtractFields(a.patterns, a.cfg, text)
	reqCtx.EndStep("success", fmt.Sprintf("amounts=%d dates=%d names=%d companies=%d",
		len(ext.Amounts), len(ext.Data.DateCandidates), len(ext.NameCandidates), len(ext.CompanyCandidates)), nil)

	var findings ComponentFindings

	if normalizeForMatch(expected.StudentName) != "" {
		reqCtx.StartStep("name_matching")
		findings.NameChecked = true
		findings.NameMatch = MatchScore(text, expected.StudentName, ext.NameCandidates)
		findings.Name = assessMatch("student name", expected.StudentName, findings.NameMatch, a.cfg.Match)
		reqCtx.EndStep("success", fmt.Sprintf("%.2f (%s)", findings.NameMatch.Score, findings.NameMatch.Method), nil)
	}

	if normalizeForMatch(expected.CompanyName) != "" {
		reqCtx.StartStep("company_matching")
		findings.CompanyChecked = true
		findings.CompanyMatch = MatchScore(text, expected.CompanyName, ext.CompanyCandidates)
		findings.Company = assessMatch("company name", expected.CompanyName, findings.CompanyMatch, a.cfg.Match)
		reqCtx.EndStep("success", fmt.Sprintf("%.2f (%s)", findings.CompanyMatch.Score, findings.CompanyMatch.Method), nil)
	}

	reqCtx.StartStep("financial_check")
	findings.Financial = ValidateFinancial(a.patterns, a.cfg, text, ext.Amounts, expected.Amount)
	reqCtx.EndStep("success", fmt.Sprintf("delta=%.2f", findings.Financial.ScoreDelta), nil)

	reqCtx.StartStep("security_assessment")
	findings.Security = AssessSecurity(a.patterns, a.cfg, text)
	reqCtx.EndStep("success", fmt.Sprintf("delta=%.2f quality=%.2f", findings.Security.ScoreDelta, findings.Security.QualityScore), nil)

	reqCtx.StartStep("structural_analysis")
	findings.Structural = AnalyzeStructure(a.cfg, text, ext)
	reqCtx.EndStep("success", fmt.Sprintf("delta=%.2f", findings.Structural.ScoreDelta), nil)

	reqCtx.StartStep("date_analysis")
	findings.Date = AnalyzeDates(a.cfg, ext.Data.DateCandidates, expected)
	reqCtx.EndStep("success", fmt.Sprintf("delta=%.2f", findings.Date.ScoreDelta), nil)

	reqCtx.StartStep("decision")
	result := CalculateReliability(a.cfg, ext.Data, findings, reqCtx)
	reqCtx.EndStep("success", string(result.Recommendation), nil)

	return result
}

// AnalyzeBatch analyzes items with at most workers goroutines. The output
// has the same order and ids as items; one failing item never affects the
// others.
func (a *Analyzer) AnalyzeBatch(items []BatchItem, workers int, reqCtx *common.RequestContext) []BatchResult {
	results := make([]BatchResult, len(items))
	if len(items) == 0 {
		return results
	}
	if workers < 1 {
		workers = 1
	}

	guard := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, item := range items {
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int, item BatchItem) {
			defer wg.Done()
			defer func() { <-guard }()
			itemCtx := reqCtx.ForItem(item.ID)
			results[i] = BatchResult{
				ID:       item.ID,
				Analysis: a.Analyze(AnalysisInput{RawText: item.RawText, Expected: item.Expected}, itemCtx),
			}
		}(i, item)
	}
	wg.Wait()

	return results
}

// SanitizeInput repairs text encoding and drops expected values that cannot
// be compared against anything
func SanitizeInput(input AnalysisInput) AnalysisInput {
	out := input
	out.RawText = strings.ReplaceAll(strings.ToValidUTF8(input.RawText, "\uFFFD"), "\x00", "")

	e := &out.Expected
	e.StudentName = strings.TrimSpace(strings.ToValidUTF8(e.StudentName, ""))
	e.CompanyName = strings.TrimSpace(strings.ToValidUTF8(e.CompanyName, ""))
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount <= 0 {
		e.Amount = 0
	}
	if e.Month < 1 || e.Month > 12 {
		e.Month = 0
	}
	if e.Year <= 0 {
		e.Year = 0
	}
	return out
}

// degradedResult is returned when even the sanitized re-run fails
func degradedResult(cfg ScoringConfig) AnalysisResult {
	flags := []string{"analysis failed"}
	return AnalysisResult{
		Authenticity: Authenticity{Score: 0, Flags: flags, Confidence: cfg.Confidence},
		DataValidation: DataValidation{
			Consistency: Consistency{Score: 0, Issues: []string{}},
		},
		SecurityAssessment: SecurityAssessment{
			ForgeryRisk:  1,
			QualityScore: 0,
			Warnings:     []string{},
		},
		OverallReliability: 0,
		ReliabilityLevel:   determineReliabilityLevel(0),
		Recommendation:     Recommend(cfg, 0, len(flags), 0),
		Reasoning: []string{
			"Automatic analysis failed, reliability could not be assessed",
			"The document must be checked by a reviewer",
		},
	}
}
