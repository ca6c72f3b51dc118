package highlight

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shokenlabs/voucher-analyzer/internal/ingest"
	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

func sampleDocument() *voucher.ParsedDocument {
	doc := voucher.NewParsedDocument()
	doc.Pages = []string{"Dividend Resolution\nCompany: ACME Holdings\nAmount: 36,000,000"}
	return doc
}

func sampleSpans() []voucher.HighlightSpan {
	return []voucher.HighlightSpan{
		{Page: 1, BBox: voucher.BBox{0.05, 0.9, 0.6, 0.95}, Label: "title"},
		{Page: 1, BBox: voucher.BBox{0.05, 0.8, 0.5, 0.85}, Label: "company"},
	}
}

func TestRenderNoSpansPassesThrough(t *testing.T) {
	renderer := NewRenderer()
	original := []byte("original bytes")

	out, err := renderer.Render(original, sampleDocument(), nil)
	require.NoError(t, err)
	assert.Equal(t, original, out)

	// nil document is also a no-op
	out, err = renderer.Render(original, nil, sampleSpans())
	require.NoError(t, err)
	assert.Equal(t, original, out)
}

func TestRenderProducesValidStructure(t *testing.T) {
	renderer := NewRenderer()

	out, err := renderer.Render([]byte("ignored"), sampleDocument(), sampleSpans())
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "%PDF-1.4\n"))
	assert.True(t, strings.HasSuffix(s, "%%EOF\n"))
	assert.Contains(t, s, "/Type /Catalog")
	assert.Contains(t, s, "/Type /Pages")
	assert.Contains(t, s, "/BaseFont /Helvetica")
	assert.Contains(t, s, "1 1 0 rg")
	assert.Contains(t, s, "(Dividend Resolution) Tj")

	// startxref must point at the xref table
	idx := strings.LastIndex(s, "startxref\n")
	require.NotEqual(t, -1, idx)
	rest := s[idx+len("startxref\n"):]
	offsetStr := strings.SplitN(rest, "\n", 2)[0]
	offset, err := strconv.Atoi(offsetStr)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s[offset:], "xref\n"))
}

func TestRenderHighlightBandsPrecedeText(t *testing.T) {
	renderer := NewRenderer()

	out, err := renderer.Render(nil, sampleDocument(), sampleSpans())
	require.NoError(t, err)

	s := string(out)
	band := strings.Index(s, "1 1 0 rg")
	text := strings.Index(s, "BT\n")
	require.NotEqual(t, -1, band)
	require.NotEqual(t, -1, text)
	assert.Less(t, band, text, "bands must draw before the text")
}

func TestRenderBandFillColorIsScoped(t *testing.T) {
	renderer := NewRenderer()

	out, err := renderer.Render(nil, sampleDocument(), sampleSpans())
	require.NoError(t, err)

	s := string(out)
	// the yellow fill lives inside a q/Q pair so the text keeps the
	// default black fill
	assert.Contains(t, s, "q\n1 1 0 rg")
	assert.Contains(t, s, "f\nQ\n")
	assert.Contains(t, s, "Q\nBT\n", "graphics state must be restored before the text object")
	assert.NotContains(t, s, "f\nBT", "text must not start while the band fill color is active")
}

func TestRenderBandsMapIntoMarginBox(t *testing.T) {
	renderer := NewRenderer()
	spans := []voucher.HighlightSpan{{Page: 1, BBox: voucher.BBox{0, 0, 0.5, 0.1}}}

	out, err := renderer.Render(nil, sampleDocument(), spans)
	require.NoError(t, err)

	// a span at the normalized origin sits at the margin, under the first
	// text column, not at the page edge
	assert.Contains(t, string(out), "48.00 48.00 249.50 74.60 re")
}

func TestRenderClampsOutOfRangeBoxes(t *testing.T) {
	renderer := NewRenderer()
	spans := []voucher.HighlightSpan{{Page: 1, BBox: voucher.BBox{-0.5, 0.2, 1.5, 0.3}}}

	out, err := renderer.Render(nil, sampleDocument(), spans)
	require.NoError(t, err)

	// coordinates clamp to [0,1] before mapping, so the band spans the
	// full usable width and stays inside the margin box
	assert.Contains(t, string(out), "48.00 197.20 499.00 74.60 re")
}

func TestRenderDegenerateBoxGetsMinimumBand(t *testing.T) {
	renderer := NewRenderer()
	spans := []voucher.HighlightSpan{{Page: 1, BBox: voucher.BBox{0.5, 0.5, 0.5, 0.5}}}

	out, err := renderer.Render(nil, sampleDocument(), spans)
	require.NoError(t, err)

	// zero-area box still draws a visible rectangle
	assert.Contains(t, string(out), "297.50 421.00 2.00 12.80 re")
}

func TestRenderEscapesLiteralCharacters(t *testing.T) {
	doc := voucher.NewParsedDocument()
	doc.Pages = []string{`Company (Holdings) \ Ltd.`}

	out, err := NewRenderer().Render(nil, doc, sampleSpans())
	require.NoError(t, err)
	assert.Contains(t, string(out), `(Company \(Holdings\) \\ Ltd.) Tj`)
}

func TestRenderOutputReadableByIngestor(t *testing.T) {
	renderer := NewRenderer()
	out, err := renderer.Render(nil, sampleDocument(), sampleSpans())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	doc, err := ingest.NewIngestor().Parse(out)
	require.NoError(t, err)
	require.Equal(t, 1, doc.PageCount())
	assert.Contains(t, doc.Pages[0], "Dividend Resolution")
	assert.Contains(t, doc.Pages[0], "ACME Holdings")
}
