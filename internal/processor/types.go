// types.go - Input and result types of the dekont reliability analysis

package processor

import "fmt"

// Recommendation is the advisory decision for a dekont. APPROVE never means
// "verified": the payment workflow still shows it to a human reviewer.
type Recommendation string

const (
	RecommendApprove      Recommendation = "APPROVE"
	RecommendReject       Recommendation = "REJECT"
	RecommendManualReview Recommendation = "MANUAL_REVIEW"
)

// Valid reports whether r is one of the three known recommendations
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendApprove, RecommendReject, RecommendManualReview:
		return true
	}
	return false
}

// ExpectedMetadata is what the internship payment record says the dekont
// should contain. Zero values mean "not given" and are skipped.
type ExpectedMetadata struct {
	StudentName string  `json:"student_name,omitempty" bson:"student_name,omitempty"`
	CompanyName string  `json:"company_name,omitempty" bson:"company_name,omitempty"`
	Amount      float64 `json:"amount,omitempty" bson:"amount,omitempty"`
	Month       int     `json:"month,omitempty" bson:"month,omitempty"` // 1..12
	Year        int     `json:"year,omitempty" bson:"year,omitempty"`
}

// HasPeriod reports whether both month and year are given
func (e ExpectedMetadata) HasPeriod() bool {
	return e.Month >= 1 && e.Month <= 12 && e.Year > 0
}

// AnalysisInput is one analysis request: OCR text plus expected metadata
type AnalysisInput struct {
	RawText  string           `json:"raw_text"`
	Expected ExpectedMetadata `json:"expected"`
}

// ExtractedData holds the fields pulled out of the OCR text
type ExtractedData struct {
	StudentName string  `json:"student_name,omitempty"`
	CompanyName string  `json:"company_name,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Date        string  `json:"date,omitempty"` // ISO yyyy-mm-dd
	IBAN        string  `json:"iban,omitempty"`

	AmountCandidates []float64 `json:"amount_candidates,omitempty"` // text order
	DateCandidates   []string  `json:"date_candidates,omitempty"`   // text order, plausible years only
}

// ComponentFinding is what every sub-analyzer returns. Flags are hard,
// decision-affecting issues; warnings are soft.
type ComponentFinding struct {
	ScoreDelta float64  `json:"score_delta"`
	Flags      []string `json:"flags"`
	Warnings   []string `json:"warnings"`
}

func (f *ComponentFinding) add(delta float64) {
	f.ScoreDelta += delta
}

func (f *ComponentFinding) flag(format string, args ...interface{}) {
	f.Flags = append(f.Flags, fmt.Sprintf(format, args...))
}

func (f *ComponentFinding) warn(format string, args ...interface{}) {
	f.Warnings = append(f.Warnings, fmt.Sprintf(format, args...))
}

// Authenticity section of the result
type Authenticity struct {
	Score      float64  `json:"score"`
	Flags      []string `json:"flags"`
	Confidence float64  `json:"confidence"`
}

// Consistency of extracted data against the expected metadata
type Consistency struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

// DataValidation section of the result
type DataValidation struct {
	ExtractedData ExtractedData `json:"extracted_data"`
	Consistency   Consistency   `json:"consistency"`
}

// SecurityAssessment section of the result
type SecurityAssessment struct {
	ForgeryRisk       float64  `json:"forgery_risk"`
	TamperingDetected bool     `json:"tampering_detected"`
	QualityScore      float64  `json:"quality_score"`
	Warnings          []string `json:"warnings"`
}

// ComponentScores is the per-component breakdown behind the final scores
type ComponentScores struct {
	NameMatch    float64 `json:"name_match"`    // raw 0-1 match score, 0 when not checked
	CompanyMatch float64 `json:"company_match"` // raw 0-1 match score, 0 when not checked
	Financial    float64 `json:"financial"`
	Security     float64 `json:"security"`
	Structural   float64 `json:"structural"`
	Date         float64 `json:"date"`
}

// AnalysisResult is the final verdict for one dekont
type AnalysisResult struct {
	Authenticity       Authenticity       `json:"authenticity"`
	DataValidation     DataValidation     `json:"data_validation"`
	SecurityAssessment SecurityAssessment `json:"security_assessment"`
	OverallReliability float64            `json:"overall_reliability"`
	ReliabilityLevel   string             `json:"reliability_level"`
	Recommendation     Recommendation     `json:"recommendation"`
	Reasoning          []string           `json:"reasoning"`
	ComponentScores    ComponentScores    `json:"component_scores"`
}

// FlagCount returns the number of hard flags
func (r AnalysisResult) FlagCount() int {
	return len(r.Authenticity.Flags)
}

// WarningCount returns the number of soft warnings
func (r AnalysisResult) WarningCount() int {
	return len(r.SecurityAssessment.Warnings)
}

// BatchItem is one entry of a batch analysis
type BatchItem struct {
	ID       string           `json:"id"`
	RawText  string           `json:"raw_text"`
	Expected ExpectedMetadata `json:"expected"`
}

// BatchResult pairs an item id with its analysis
type BatchResult struct {
	ID       string         `json:"id"`
	Analysis AnalysisResult `json:"analysis"`
}
