package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "1.500,00", want: "1500"},
		{raw: "1,500.00", want: "1500"},
		{raw: "1500,50", want: "1500.5"},
		{raw: "1.500", want: "1500"},
		{raw: "12.345.678,90", want: "12345678.9"},
		{raw: "750", want: "750"},
		{raw: "0,00", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestExtractAmountFormats(t *testing.T) {
	for _, text := range []string{"₺1.500,00", "1.500,00 ₺", "1.500,00 TL", "Tutar: 1.500,00 tl", "1.500,00 Lira"} {
		t.Run(text, func(t *testing.T) {
			ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), text)
			assert.True(t, ext.HasAmountPattern)
			assert.Equal(t, 1500.0, ext.Data.Amount)
		})
	}
}

func TestExtractAmountKeepsMaximumAndCandidates(t *testing.T) {
	text := "Tutar: 1.500,00 TL\nMasraf: 7,50 TL\nToplam: 1.507,50 TL"
	ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), text)

	assert.Equal(t, 1507.5, ext.Data.Amount)
	assert.Equal(t, []float64{1500, 7.5, 1507.5}, ext.Data.AmountCandidates)
	assert.Len(t, ext.Amounts, 3)
}

func TestExtractAmountReportsOverlappingPatternsOnce(t *testing.T) {
	ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), "₺1.500,00 TL")
	assert.Equal(t, []float64{1500}, ext.Data.AmountCandidates)
}

func TestExtractAmountRejectsZero(t *testing.T) {
	ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), "Tutar: 0,00 TL")
	assert.True(t, ext.HasAmountPattern)
	assert.Empty(t, ext.Amounts)
	assert.Zero(t, ext.Data.Amount)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		fragment string
		want     string
		ok       bool
	}{
		{fragment: "15/03/2024", want: "2024-03-15", ok: true},
		{fragment: "15/03/99", want: "1999-03-15", ok: true},
		{fragment: "15/03/24", want: "2024-03-15", ok: true},
		{fragment: "5.3.2024", want: "2024-03-05", ok: true},
		{fragment: "15-03-2024", want: "2024-03-15", ok: true},
		{fragment: "2024-03-15", want: "2024-03-15", ok: true},
		{fragment: "2024/3/5", want: "2024-03-05", ok: true},
		{fragment: "31/13/2024", ok: false},
		{fragment: "00/03/2024", ok: false},
		{fragment: "no date here", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			got, ok := NormalizeDate(tt.fragment)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDateSelectsLatestPlausible(t *testing.T) {
	text := "Islem: 01/02/2024\nValor: 15/03/2024\nEski: 15/03/1999\nHatali: 31/13/2024"
	ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), text)

	assert.True(t, ext.HasDatePattern)
	assert.Equal(t, "2024-03-15", ext.Data.Date)
	assert.Equal(t, []string{"2024-02-01", "2024-03-15"}, ext.Data.DateCandidates)
}

func TestExtractDateInvalidOnlyStillCountsAsPattern(t *testing.T) {
	ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), "Tarih: 31/13/2024")
	assert.True(t, ext.HasDatePattern)
	assert.Empty(t, ext.Data.Date)
	assert.Empty(t, ext.Data.DateCandidates)
}

func TestExtractNamePrefersLexiconHits(t *testing.T) {
	text := "Gönderen: Ali Veli\nAlıcı: Ahmet Yılmaz"
	ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), text)

	assert.Equal(t, []string{"Ali Veli", "Ahmet Yılmaz"}, ext.NameCandidates)
	assert.Equal(t, "Ahmet Yılmaz", ext.Data.StudentName)
}

func TestExtractNameTieKeepsFirst(t *testing.T) {
	ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), "Kemal Sunal ile Orhan Veli")
	assert.Equal(t, "Kemal Sunal", ext.Data.StudentName)
}

func TestExtractCompany(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "limited kept verbatim", text: "Dekont\n  ABC Yazılım Ltd. Şti.  \nödenmiştir", want: "  ABC Yazılım Ltd. Şti.  "},
		{name: "dotless uppercase", text: "GÖNDEREN: ABC KOOPERATIF\n", want: "GÖNDEREN: ABC KOOPERATIF"},
		{name: "ascii only", text: "Alici\nXYZ LIMITED SIRKET", want: "XYZ LIMITED SIRKET"},
		{name: "anonim uppercase", text: "Gönderen\nİŞ BANKASI A.Ş.", want: "İŞ BANKASI A.Ş."},
		{name: "first line wins", text: "Deniz Vakıf\nKaya Kooperatif", want: "Deniz Vakıf"},
		{name: "suffix inside word", text: "Ödenmiştir\nLütfen saklayınız", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), tt.text)
			assert.Equal(t, tt.want, ext.Data.CompanyName)
		})
	}
}

func TestExtractIBAN(t *testing.T) {
	ext := ExtractFields(DefaultPatterns(), DefaultScoringConfig(), "IBAN: TR12 0006 4000 0011 2345 6789 01\nAçıklama: staj")
	assert.Equal(t, "TR120006400000112345678901", ext.Data.IBAN)

	ext = ExtractFields(DefaultPatterns(), DefaultScoringConfig(), "IBAN: TR12 0006")
	assert.Empty(t, ext.Data.IBAN)
}
