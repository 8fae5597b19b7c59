package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeForMatch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "AHMET YILMAZ'a", want: "ahmet yılmaza"},
		{in: "  İSTANBUL   A.Ş. ", want: "istanbul aş"},
		{in: "Ltd.\tŞti.", want: "ltd şti"},
		{in: "...", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeForMatch(tt.in))
		})
	}
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		expected   string
		candidates []string
		wantScore  float64
		wantMethod string
	}{
		{
			name:       "verbatim",
			text:       "Ahmet Yılmaz adına ödeme",
			expected:   "Ahmet Yılmaz",
			wantScore:  1.0,
			wantMethod: "contains",
		},
		{
			name:       "uppercase with suffix",
			text:       "AHMET YILMAZ'a ödenmiştir.",
			expected:   "Ahmet Yılmaz",
			wantScore:  1.0,
			wantMethod: "contains",
		},
		{
			name:       "half the tokens",
			text:       "Öğrenci Mehmet Demir",
			expected:   "Mehmet Kaya",
			wantScore:  0.5,
			wantMethod: "token_overlap",
		},
		{
			name:       "ocr typo",
			text:       "Ahmet Yilmaz",
			expected:   "Ahmet Yılmaz",
			candidates: []string{"Ahmet Yilmaz"},
			wantScore:  11.0 / 12.0,
			wantMethod: "fuzzy",
		},
		{
			name:       "absent",
			text:       "Tutar: 1.500,00 TL",
			expected:   "Bilinmeyen A.Ş.",
			wantScore:  0,
			wantMethod: "not_found",
		},
		{
			name:       "empty expected",
			text:       "Ahmet Yılmaz",
			expected:   " . ",
			wantScore:  0,
			wantMethod: "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchScore(tt.text, tt.expected, tt.candidates)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Equal(t, tt.wantMethod, got.Method)
		})
	}
}

func TestSimilarityCountsRunes(t *testing.T) {
	assert.Equal(t, 1.0, similarity("şçğ", "şçğ"))
	assert.InDelta(t, 2.0/3.0, similarity("şçğ", "şcğ"), 1e-9)
	assert.Zero(t, similarity("abc", "xyz"))
}

func TestAssessMatch(t *testing.T) {
	credit := DefaultScoringConfig().Match

	tests := []struct {
		score        float64
		wantDelta    float64
		wantFlags    int
		wantWarnings int
	}{
		{score: 1.0, wantDelta: 0.15},
		{score: 0.81, wantDelta: 0.15},
		{score: 0.8, wantDelta: 0.08, wantWarnings: 1},
		{score: 0.51, wantDelta: 0.08, wantWarnings: 1},
		{score: 0.5, wantFlags: 1},
		{score: 0, wantFlags: 1},
	}

	for _, tt := range tests {
		f := assessMatch("student name", "Ahmet Yılmaz", MatchResult{Score: tt.score}, credit)
		assert.InDelta(t, tt.wantDelta, f.ScoreDelta, 1e-9, "score %.2f", tt.score)
		assert.Len(t, f.Flags, tt.wantFlags, "score %.2f", tt.score)
		assert.Len(t, f.Warnings, tt.wantWarnings, "score %.2f", tt.score)
	}

	f := assessMatch("company name", "Bilinmeyen A.Ş.", MatchResult{}, credit)
	assert.Contains(t, f.Flags[0], "company name mismatch")
}
