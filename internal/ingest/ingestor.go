// Package ingest converts arbitrary byte buffers into the internal
// ParsedDocument representation. PDF input runs through a cascade of
// extractors in priority order; anything without a PDF signature is decoded
// permissively as plain text.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// ErrEmptyInput is returned when Parse receives zero bytes.
var ErrEmptyInput = errors.New("empty file provided")

const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0

	// degenerate boxes get expanded by this much so they stay visible
	bboxEpsilon = 0.005

	// synthesized spans are laid out inside these normalized page margins
	synthMargin = 0.05
)

// Extractor turns PDF bytes into a parsed document. Implementations return
// an error rather than a partially useful document when they cannot cope
// with the input, so the cascade can move on.
type Extractor interface {
	Name() string
	Extract(data []byte) (*voucher.ParsedDocument, error)
}

// Ingestor parses uploaded bytes using a prioritized extractor cascade.
type Ingestor struct {
	extractors []Extractor
	debug      bool
}

// NewIngestor returns an ingestor with the default cascade: ledongthuc/pdf
// for layout-aware extraction, pdfcpu for structure-aware content stream
// recovery, then the raw byte-level parser.
func NewIngestor() *Ingestor {
	return &Ingestor{
		extractors: []Extractor{
			ledongthucExtractor{},
			pdfcpuExtractor{},
			rawExtractor{},
		},
	}
}

// NewIngestorWithExtractors builds an ingestor over a custom cascade.
// Used by tests to force individual extraction paths.
func NewIngestorWithExtractors(debug bool, extractors ...Extractor) *Ingestor {
	return &Ingestor{extractors: extractors, debug: debug}
}

// Parse converts raw bytes into a ParsedDocument. Empty input fails with
// ErrEmptyInput; input without a %PDF signature is decoded as plain text and
// becomes a single page.
func (g *Ingestor) Parse(data []byte) (*voucher.ParsedDocument, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF")) {
		return plainTextDocument(data), nil
	}

	for _, extractor := range g.extractors {
		doc, err := extractPDF(extractor, data)
		if err != nil {
			if g.debug {
				log.Printf("ingest: %s extractor failed: %v", extractor.Name(), err)
			}
			continue
		}
		if doc.PageCount() == 0 || !hasText(doc) {
			continue
		}
		doc.Metadata["extractor"] = extractor.Name()
		doc.Metadata["page_count"] = strconv.Itoa(doc.PageCount())
		ensureTokenLayout(doc)
		return doc, nil
	}

	// completely non-conforming byte stream: decode the whole input
	return plainTextDocument(data), nil
}

// extractPDF shields the cascade from panics inside third-party parsers;
// a panicking extractor counts as a failed attempt.
func extractPDF(extractor Extractor, data []byte) (doc *voucher.ParsedDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%s extractor panicked: %v", extractor.Name(), r)
		}
	}()
	return extractor.Extract(data)
}

func hasText(doc *voucher.ParsedDocument) bool {
	for _, page := range doc.Pages {
		if strings.TrimSpace(page) != "" {
			return true
		}
	}
	return false
}

// plainTextDocument decodes bytes permissively (invalid UTF-8 dropped) into
// a single page with synthesized token positions.
func plainTextDocument(data []byte) *voucher.ParsedDocument {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\x00", "")

	doc := voucher.NewParsedDocument()
	doc.Pages = []string{text}
	doc.Metadata["page_count"] = "1"
	doc.Metadata["extractor"] = "text"
	doc.Tokens = synthesizeSpans(doc.Pages)
	return doc
}

// ensureTokenLayout backfills approximate positions when an extractor
// produced text but no layout information at all.
func ensureTokenLayout(doc *voucher.ParsedDocument) {
	for _, tok := range doc.Tokens {
		if tok.BBox != nil {
			return
		}
	}
	doc.Tokens = synthesizeSpans(doc.Pages)
}

// synthesizeSpans distributes the non-empty lines of each page evenly from
// top to bottom within the page margins. This is an explicit approximation:
// no horizontal layout information exists on this path.
func synthesizeSpans(pages []string) []voucher.TextSpan {
	var spans []voucher.TextSpan
	for pageIdx, page := range pages {
		var lines []string
		for _, line := range strings.Split(page, "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, strings.TrimSpace(line))
			}
		}
		if len(lines) == 0 {
			continue
		}
		usable := 1.0 - 2*synthMargin
		step := usable / float64(len(lines))
		height := step
		if height > 0.05 {
			height = 0.05
		}
		for i, line := range lines {
			y1 := 1.0 - synthMargin - float64(i)*step
			y0 := y1 - height
			bbox := clampBBox(synthMargin, y0, 1.0-synthMargin, y1)
			spans = append(spans, voucher.TextSpan{
				Page: pageIdx + 1,
				Text: line,
				BBox: &bbox,
			})
		}
	}
	return spans
}

// normalizeBox maps a device-space rectangle onto the normalized
// bottom-left-origin unit square. Sources reporting top-origin coordinates
// get their y axis flipped; degenerate boxes are expanded by an epsilon so
// they remain highlightable.
func normalizeBox(x0, y0, x1, y1, pageW, pageH float64, topOrigin bool) voucher.BBox {
	if pageW <= 0 {
		pageW = defaultPageWidth
	}
	if pageH <= 0 {
		pageH = defaultPageHeight
	}
	nx0 := x0 / pageW
	nx1 := x1 / pageW
	var ny0, ny1 float64
	if topOrigin {
		ny0 = 1 - y1/pageH
		ny1 = 1 - y0/pageH
	} else {
		ny0 = y0 / pageH
		ny1 = y1 / pageH
	}
	bbox := clampBBox(nx0, ny0, nx1, ny1)
	if bbox[2]-bbox[0] < bboxEpsilon {
		bbox[0] = clamp01(bbox[0] - bboxEpsilon)
		bbox[2] = clamp01(bbox[2] + bboxEpsilon)
	}
	if bbox[3]-bbox[1] < bboxEpsilon {
		bbox[1] = clamp01(bbox[1] - bboxEpsilon)
		bbox[3] = clamp01(bbox[3] + bboxEpsilon)
	}
	return bbox
}

func clampBBox(x0, y0, x1, y1 float64) voucher.BBox {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return voucher.BBox{clamp01(x0), clamp01(y0), clamp01(x1), clamp01(y1)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// assembleContentLines converts tokenizer output into page text plus one
// TextSpan per line. Lines without position data produce spans with no box.
func assembleContentLines(lines []contentLine, pageNum int, pageW, pageH float64) (string, []voucher.TextSpan) {
	var (
		textLines []string
		spans     []voucher.TextSpan
	)
	for _, line := range lines {
		if line.text == "" {
			continue
		}
		textLines = append(textLines, line.text)
		span := voucher.TextSpan{Page: pageNum, Text: line.text}
		if line.hasPos {
			size := line.fontSize
			if size <= 0 {
				size = 12
			}
			// crude width estimate, half an em per rune
			width := 0.5 * size * float64(len([]rune(line.text)))
			bbox := normalizeBox(line.x, line.y, line.x+width, line.y+size, pageW, pageH, false)
			span.BBox = &bbox
		}
		spans = append(spans, span)
	}
	return strings.Join(textLines, "\n"), spans
}
