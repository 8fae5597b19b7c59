package processor

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stajtakip/dekont_verifier/internal/common"
)

const scenarioText = "AHMET YILMAZ'a ödenmiştir. Tutar: 1.500,00 TL Tarih: 15/03/2024"

func scenarioExpected() ExpectedMetadata {
	return ExpectedMetadata{StudentName: "Ahmet Yılmaz", Amount: 1500, Month: 3, Year: 2024}
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(DefaultScoringConfig())
	require.NoError(t, err)
	return a
}

func assertInRange(t *testing.T, r AnalysisResult) {
	t.Helper()
	for name, v := range map[string]float64{
		"authenticity": r.Authenticity.Score,
		"consistency":  r.DataValidation.Consistency.Score,
		"quality":      r.SecurityAssessment.QualityScore,
		"forgery_risk": r.SecurityAssessment.ForgeryRisk,
		"overall":      r.OverallReliability,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
	assert.True(t, r.Recommendation.Valid())
	assert.NotEmpty(t, r.Reasoning)
}

func TestAnalyzeMatchingReceiptIsApproved(t *testing.T) {
	r := Analyze(scenarioText, scenarioExpected())

	assert.Equal(t, RecommendApprove, r.Recommendation)
	assert.Greater(t, r.OverallReliability, 0.6)
	assert.InDelta(t, 0.83, r.OverallReliability, 1e-9)
	assert.Empty(t, r.Authenticity.Flags)
	assert.Equal(t, 1.0, r.Authenticity.Score)
	assert.InDelta(t, 0.9, r.DataValidation.Consistency.Score, 1e-9)
	assert.InDelta(t, 0.7, r.SecurityAssessment.QualityScore, 1e-9)
	assert.False(t, r.SecurityAssessment.TamperingDetected)
	assert.Equal(t, 1.0, r.ComponentScores.NameMatch)

	ext := r.DataValidation.ExtractedData
	assert.Equal(t, 1500.0, ext.Amount)
	assert.Equal(t, "2024-03-15", ext.Date)
	assert.Empty(t, ext.IBAN)
}

func TestAnalyzeUnknownCompanyAddsOneFlag(t *testing.T) {
	base := Analyze(scenarioText, scenarioExpected())

	expected := scenarioExpected()
	expected.CompanyName = "Bilinmeyen A.Ş."
	r := Analyze(scenarioText, expected)

	require.Len(t, r.Authenticity.Flags, 1)
	assert.Contains(t, r.Authenticity.Flags[0], "company name mismatch")
	assert.Contains(t, r.DataValidation.Consistency.Issues, r.Authenticity.Flags[0])
	assert.Less(t, r.OverallReliability, base.OverallReliability)
	assert.InDelta(t, 0.73, r.OverallReliability, 1e-9)

	assert.Equal(t, base.Authenticity.Score, r.Authenticity.Score)
	assert.Equal(t, base.SecurityAssessment, r.SecurityAssessment)
	assert.Equal(t, base.DataValidation.ExtractedData, r.DataValidation.ExtractedData)
}

func TestAnalyzeSampleTextIsRejected(t *testing.T) {
	r := Analyze("test örnek belge", ExpectedMetadata{})

	assert.GreaterOrEqual(t, len(r.Authenticity.Flags), 3)
	assert.Contains(t, r.Authenticity.Flags, "no valid amount found")
	assert.Contains(t, r.Authenticity.Flags, "no date format found")
	assert.Contains(t, r.Authenticity.Flags, "no valid date format")
	assert.Contains(t, r.SecurityAssessment.Warnings, "no currency marker")
	assert.True(t, r.SecurityAssessment.TamperingDetected)
	assert.Equal(t, RecommendReject, r.Recommendation)
}

func TestAnalyzeTamperingLowersAuthenticity(t *testing.T) {
	clean := Analyze(scenarioText, scenarioExpected())
	tampered := Analyze("SAHTE KOPYA "+scenarioText, scenarioExpected())

	assert.True(t, tampered.SecurityAssessment.TamperingDetected)
	assert.Contains(t, tampered.Authenticity.Flags, "suspicious terms: sahte, kopya")
	assert.Less(t, tampered.Authenticity.Score, clean.Authenticity.Score)
	assert.Greater(t, tampered.SecurityAssessment.ForgeryRisk, clean.SecurityAssessment.ForgeryRisk)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a := newTestAnalyzer(t)
	inputs := []AnalysisInput{
		{RawText: scenarioText, Expected: scenarioExpected()},
		{RawText: "test örnek belge"},
		{RawText: "Gönderen: ABC Ltd. Şti.\n₺1.490,00\n01/03/2024", Expected: ExpectedMetadata{CompanyName: "ABC Ltd Şti", Amount: 1500}},
	}
	for _, in := range inputs {
		assert.Equal(t, a.Analyze(in, nil), a.Analyze(in, nil))
	}
}

func TestAnalyzeScoresStayInRange(t *testing.T) {
	a := newTestAnalyzer(t)
	texts := []string{
		"",
		"   \n\n  ",
		"\x00\xff\xfe",
		strings.Repeat("€#* ", 200),
		strings.Repeat("sahte kopya iptal void test örnek ", 20),
		"ZİRAAT BANKASI\nHavale Dekontu\nTarih: 15/03/2024\nAlıcı: Ahmet Yılmaz\nIBAN: TR12 0006 4000 0011 2345 6789 01\nTutar: 1.500,00 TL\nAçıklama: Mart staj ücreti",
	}
	expectations := []ExpectedMetadata{
		{},
		scenarioExpected(),
		{StudentName: "x", CompanyName: "y", Amount: -5, Month: 14, Year: -1},
	}
	for _, text := range texts {
		for _, exp := range expectations {
			assertInRange(t, a.Analyze(AnalysisInput{RawText: text, Expected: exp}, nil))
		}
	}
}

func TestAnalyzeRecoversWithSanitizedInput(t *testing.T) {
	a := newTestAnalyzer(t)
	reqCtx := common.NewRequestContext("test")

	broken := scenarioExpected()
	broken.Amount = math.NaN()

	var r AnalysisResult
	require.NotPanics(t, func() {
		r = a.Analyze(AnalysisInput{RawText: scenarioText, Expected: broken}, reqCtx)
	})

	sanitized := scenarioExpected()
	sanitized.Amount = 0
	assert.Equal(t, a.Analyze(AnalysisInput{RawText: scenarioText, Expected: sanitized}, nil), r)
	assertInRange(t, r)

	summary := reqCtx.GetSummary()
	assert.Equal(t, 1, summary["failed_steps"])
}

func TestAnalyzeBatchPreservesOrderAndIDs(t *testing.T) {
	a := newTestAnalyzer(t)
	inf := scenarioExpected()
	inf.Amount = math.Inf(1)

	items := []BatchItem{
		{ID: "ok-1", RawText: scenarioText, Expected: scenarioExpected()},
		{ID: "empty", RawText: ""},
		{ID: "broken", RawText: scenarioText, Expected: inf},
		{ID: "garbage", RawText: "\xff\x00\xfe"},
		{ID: "sample", RawText: "test örnek belge"},
	}
	for i := 0; i < 20; i++ {
		items = append(items, BatchItem{ID: fmt.Sprintf("bulk-%d", i), RawText: scenarioText, Expected: scenarioExpected()})
	}

	results := a.AnalyzeBatch(items, 4, common.NewRequestContext("batch"))

	require.Len(t, results, len(items))
	for i, item := range items {
		assert.Equal(t, item.ID, results[i].ID)
		assertInRange(t, results[i].Analysis)
	}
	assert.Equal(t, RecommendApprove, results[0].Analysis.Recommendation)
	assert.Equal(t, results[0].Analysis, results[len(results)-1].Analysis)
	assert.Equal(t, RecommendReject, results[4].Analysis.Recommendation)
}

func TestAnalyzeBatchEdgeCases(t *testing.T) {
	a := newTestAnalyzer(t)

	assert.Empty(t, a.AnalyzeBatch(nil, 4, nil))

	results := a.AnalyzeBatch([]BatchItem{{ID: "a"}, {ID: "b"}}, 0, nil)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
}

func TestSanitizeInput(t *testing.T) {
	in := AnalysisInput{
		RawText: "Tutar\x00: 1.500,00 TL \xff",
		Expected: ExpectedMetadata{
			StudentName: "  Ahmet Yılmaz ",
			Amount:      math.NaN(),
			Month:       13,
			Year:        -2024,
		},
	}

	out := SanitizeInput(in)

	assert.Equal(t, "Tutar: 1.500,00 TL \uFFFD", out.RawText)
	assert.Equal(t, ExpectedMetadata{StudentName: "Ahmet Yılmaz"}, out.Expected)
	assert.True(t, math.IsNaN(in.Expected.Amount), "input must not be modified")

	valid := AnalysisInput{RawText: scenarioText, Expected: scenarioExpected()}
	assert.Equal(t, valid, SanitizeInput(valid))
}

func TestDegradedResultIsValid(t *testing.T) {
	r := degradedResult(DefaultScoringConfig())
	assertInRange(t, r)
	assert.Equal(t, RecommendReject, r.Recommendation)
	assert.Equal(t, []string{"analysis failed"}, r.Authenticity.Flags)
}

func TestNewAnalyzerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.QualityWeight = 0.9
	cfg.Match.PartialThreshold = 0.9

	_, err := NewAnalyzer(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum to 1.0")
	assert.Contains(t, err.Error(), "partial match threshold")

	assert.NoError(t, DefaultScoringConfig().Validate())
}
