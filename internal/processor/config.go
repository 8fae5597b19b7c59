// config.go - Scoring weights and thresholds of the reliability engine

package processor

import (
	"errors"
	"fmt"
)

// MatchCredit is the reward for a fuzzy name/company match
type MatchCredit struct {
	FullThreshold    float64 // score > this gets Full
	PartialThreshold float64 // score > this (and <= FullThreshold) gets Partial
	Full             float64
	Partial          float64
}

// ScoringConfig holds every literal the engine scores with
type ScoringConfig struct {
	AuthenticityBase float64
	ConsistencyBase  float64

	Match MatchCredit

	// Financial validator
	CurrencyMarkerReward   float64
	AmountPresentReward    float64
	AmountExactTolerance   float64 // fraction of expected amount
	AmountExactReward      float64
	AmountPartialTolerance float64
	AmountPartialReward    float64

	// Security assessor
	SecurityBase          float64
	TamperPenalty         float64
	CleanVocabularyReward float64
	QualityBase           float64
	LowDensityThreshold   float64 // chars per word
	LowDensityPenalty     float64
	SpecialCharThreshold  float64
	SpecialCharPenalty    float64
	MinMeanWordLength     float64
	MaxMeanWordLength     float64
	WordLengthPenalty     float64
	RepeatedWordMinLength int // words longer than this are counted
	RepeatedWordMinCount  int // occurring more than this many times
	MaxRepeatedWords      int // more distinct repeated words than this is abnormal
	RepetitionPenalty     float64
	NoRepetitionReward    float64
	DiacriticRatio        float64
	DiacriticReward       float64

	// Structural analyzer
	DatePatternReward   float64
	AmountPatternReward float64
	IBANReward          float64
	LineCountReward     float64
	MinLines            int // exclusive
	MaxLines            int // exclusive

	// Date/period analyzer
	ValidDateReward   float64
	PeriodMatchReward float64
	YearOnlyReward    float64
	MinPlausibleYear  int
	MaxPlausibleYear  int

	// Decision aggregator
	AuthenticityWeight    float64
	ConsistencyWeight     float64
	QualityWeight         float64
	FlagPenalty           float64
	WarningPenalty        float64
	Confidence            float64
	RejectFlagCount       int // more flags than this rejects
	RejectReliability     float64
	ReviewFlagCount       int
	ReviewWarningCount    int
	ApproveMinReliability float64
}

// DefaultScoringConfig returns the production weights
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		AuthenticityBase: 0.3,
		ConsistencyBase:  0.3,

		Match: MatchCredit{
			FullThreshold:    0.8,
			PartialThreshold: 0.5,
			Full:             0.15,
			Partial:          0.08,
		},

		CurrencyMarkerReward:   0.1,
		AmountPresentReward:    0.1,
		AmountExactTolerance:   0.05,
		AmountExactReward:      0.15,
		AmountPartialTolerance: 0.10,
		AmountPartialReward:    0.08,

		SecurityBase:          0.2,
		TamperPenalty:         -0.3,
		CleanVocabularyReward: 0.1,
		QualityBase:           0.7,
		LowDensityThreshold:   3,
		LowDensityPenalty:     -0.1,
		SpecialCharThreshold:  0.3,
		SpecialCharPenalty:    -0.15,
		MinMeanWordLength:     2,
		MaxMeanWordLength:     15,
		WordLengthPenalty:     -0.1,
		RepeatedWordMinLength: 4,
		RepeatedWordMinCount:  2,
		MaxRepeatedWords:      3,
		RepetitionPenalty:     -0.1,
		NoRepetitionReward:    0.05,
		DiacriticRatio:        0.02,
		DiacriticReward:       0.05,

		DatePatternReward:   0.1,
		AmountPatternReward: 0.1,
		IBANReward:          0.05,
		LineCountReward:     0.05,
		MinLines:            5,
		MaxLines:            50,

		ValidDateReward:   0.1,
		PeriodMatchReward: 0.15,
		YearOnlyReward:    0.05,
		MinPlausibleYear:  2020,
		MaxPlausibleYear:  2030,

		AuthenticityWeight:    0.4,
		ConsistencyWeight:     0.3,
		QualityWeight:         0.3,
		FlagPenalty:           0.1,
		WarningPenalty:        0.05,
		Confidence:            0.85,
		RejectFlagCount:       3,
		RejectReliability:     0.3,
		ReviewFlagCount:       1,
		ReviewWarningCount:    3,
		ApproveMinReliability: 0.6,
	}
}

// Validate checks that the configuration can produce meaningful scores
func (c ScoringConfig) Validate() error {
	var errs []error

	weights := c.AuthenticityWeight + c.ConsistencyWeight + c.QualityWeight
	if weights < 0.999 || weights > 1.001 {
		errs = append(errs, fmt.Errorf("reliability weights must sum to 1.0, got %.3f", weights))
	}
	if c.Match.PartialThreshold >= c.Match.FullThreshold {
		errs = append(errs, fmt.Errorf("partial match threshold %.2f must be below full threshold %.2f",
			c.Match.PartialThreshold, c.Match.FullThreshold))
	}
	if c.AmountExactTolerance <= 0 || c.AmountExactTolerance > c.AmountPartialTolerance {
		errs = append(errs, fmt.Errorf("amount tolerances must satisfy 0 < exact (%.3f) <= partial (%.3f)",
			c.AmountExactTolerance, c.AmountPartialTolerance))
	}
	if c.MinPlausibleYear > c.MaxPlausibleYear {
		errs = append(errs, fmt.Errorf("plausible year range %d-%d is empty", c.MinPlausibleYear, c.MaxPlausibleYear))
	}
	if c.MinLines >= c.MaxLines {
		errs = append(errs, fmt.Errorf("line range (%d,%d) is empty", c.MinLines, c.MaxLines))
	}
	if c.RejectReliability > c.ApproveMinReliability {
		errs = append(errs, fmt.Errorf("reject reliability %.2f above approve minimum %.2f",
			c.RejectReliability, c.ApproveMinReliability))
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		errs = append(errs, fmt.Errorf("confidence %.2f outside [0,1]", c.Confidence))
	}
	return errors.Join(errs...)
}
