package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

func docFromPages(pages ...string) *voucher.ParsedDocument {
	doc := voucher.NewParsedDocument()
	doc.Pages = pages
	return doc
}

func TestExtractNilDocument(t *testing.T) {
	engine := NewEngine()
	_, err := engine.Extract(nil)
	require.Error(t, err)
}

func TestExtractEnglishResolution(t *testing.T) {
	engine := NewEngine()
	doc := docFromPages(
		"Dividend Resolution\n" +
			"Company: ACME Holdings\n" +
			"Date: 2024-01-01\n" +
			"Amount: 1000000\n")

	data, err := engine.Extract(doc)
	require.NoError(t, err)

	assert.Equal(t, "Dividend Resolution", data.Title.Value)
	assert.Equal(t, "ACME Holdings", data.CompanyName.Value)
	assert.Equal(t, "2024-01-01", data.ResolutionDate.Value)
	assert.Equal(t, "1000000", data.DividendAmount.Value)
}

func TestExtractJapaneseResolution(t *testing.T) {
	engine := NewEngine()
	doc := docFromPages(
		"配当決議書\n" +
			"会社名: 株式会社サンプル\n" +
			"決議日: 令和6年04月15日\n" +
			"配当金総額: 36,000,000円\n")

	data, err := engine.Extract(doc)
	require.NoError(t, err)

	assert.Equal(t, "配当決議書", data.Title.Value)
	assert.Equal(t, "株式会社サンプル", data.CompanyName.Value)
	assert.Equal(t, "2024-04-15", data.ResolutionDate.Value)
	assert.Equal(t, "36,000,000", data.DividendAmount.Value)
}

func TestTitleRejectsNarrativeSentence(t *testing.T) {
	engine := NewEngine()
	doc := docFromPages(
		"Minutes of the Board of Directors Resolution\n" +
			"The board hereby resolved to pay dividends.\n")

	data, err := engine.Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "Minutes of the Board of Directors Resolution", data.Title.Value)
}

func TestCompanySuffixBeatsNarrativeMention(t *testing.T) {
	engine := NewEngine()
	doc := docFromPages(
		"Dividend Resolution\n" +
			"Acme Holdings K.K.\n" +
			"The Company resolved to distribute dividends to shareholders.\n")

	data, err := engine.Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings K.K.", data.CompanyName.Value)
}

func TestCompanyAbbreviatedSuffixNormalized(t *testing.T) {
	value, ok := cleanCompanyCandidate("㈱サンプル商事")
	require.True(t, ok)
	assert.Equal(t, "株式会社サンプル商事", value)

	value, ok = cleanCompanyCandidate("サンプル商事(株)")
	require.True(t, ok)
	assert.Equal(t, "サンプル商事株式会社", value)
}

func TestCompanyRejectsResolutionSentence(t *testing.T) {
	_, ok := cleanCompanyCandidate("the board approved the dividend")
	assert.False(t, ok)
}

func TestDateNormalization(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"決議日: 2024-04-15", "2024-04-15"},
		{"決議日: 2024/4/15", "2024-04-15"},
		{"決議日: 2024年04月15日", "2024-04-15"},
		{"決議日: 令和6年04月15日", "2024-04-15"},
		{"決議日: 令和元年5月1日", "2019-05-01"},
	}
	for _, tt := range tests {
		got, ok := findDate(tt.input)
		require.True(t, ok, "findDate(%q)", tt.input)
		assert.Equal(t, tt.want, got, "findDate(%q)", tt.input)
	}
}

func TestDateInvalidComponentsZeroPadded(t *testing.T) {
	// calendar-invalid dates keep their literal digits instead of rolling over
	got, ok := findDate("決議日: 2024年2月31日")
	require.True(t, ok)
	assert.Equal(t, "2024-02-31", got)
}

func TestDateExclusionsSkipAdjacentDates(t *testing.T) {
	engine := NewEngine()
	doc := docFromPages(
		"Record Date: 2024-03-31\n" +
			"Resolution Date: 2024-04-15\n" +
			"Payment Date: 2024-06-01\n")

	data, err := engine.Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-15", data.ResolutionDate.Value)
}

func TestAmountTotalBeatsPerShare(t *testing.T) {
	engine := NewEngine()
	doc := docFromPages(
		"Dividend Resolution\n" +
			"Total Amount of Dividends: JPY 36,000,000 (JPY 18 per share x 2,000,000 shares)\n")

	data, err := engine.Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "36,000,000", data.DividendAmount.Value)
}

func TestAmountOkuMultiplier(t *testing.T) {
	got, ok := extractNumber("配当金総額 3.6億円")
	require.True(t, ok)
	assert.Equal(t, "360,000,000", got)
}

func TestAmountPerShareOnlyLineSkipped(t *testing.T) {
	engine := NewEngine()
	doc := docFromPages(
		"1株当たり配当金: 18円\n" +
			"配当金総額: 36,000,000円\n")

	data, err := engine.Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "36,000,000", data.DividendAmount.Value)
}

func TestSourceHighlightsCollectInFieldOrder(t *testing.T) {
	engine := NewEngine()
	doc := docFromPages(
		"Dividend Resolution\n" +
			"Company: ACME Holdings\n" +
			"Date: 2024-01-01\n" +
			"Amount: 1000000\n")

	data, err := engine.Extract(doc)
	require.NoError(t, err)

	require.Len(t, data.SourceHighlights, 4)
	assert.Equal(t, "title", data.SourceHighlights[0].Label)
	assert.Equal(t, "company", data.SourceHighlights[1].Label)
	assert.Equal(t, "resolution_date", data.SourceHighlights[2].Label)
	assert.Equal(t, "dividend_amount", data.SourceHighlights[3].Label)
}

func TestFindSpanFallsBackToDefaultBand(t *testing.T) {
	doc := docFromPages("some page text")
	span := findSpan(doc, "value that appears nowhere", "title")
	assert.Equal(t, 1, span.Page)
	assert.Equal(t, defaultBand, span.BBox)
}

func TestConfidenceFromScore(t *testing.T) {
	low := confidenceFromScore(0, 0.55)
	high := confidenceFromScore(20, 0.55)
	assert.GreaterOrEqual(t, low, 0.55)
	assert.Greater(t, high, low)
	assert.Less(t, high, 1.0)
}
