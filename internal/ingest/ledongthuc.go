package ingest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// ledongthucExtractor is the preferred extractor: it yields page text plus
// word-level positions, which become highlight-quality bounding boxes.
type ledongthucExtractor struct{}

func (ledongthucExtractor) Name() string { return "ledongthuc" }

func (ledongthucExtractor) Extract(data []byte) (*voucher.ParsedDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	doc := voucher.NewParsedDocument()
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		text, spans := extractLedongthucPage(reader, pageNum)
		doc.Pages = append(doc.Pages, text)
		doc.Tokens = append(doc.Tokens, spans...)
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	return doc, nil
}

// extractLedongthucPage contains per-page failures: a page the library
// cannot handle is substituted with a marker string instead of failing the
// whole document.
func extractLedongthucPage(reader *pdf.Reader, pageNum int) (text string, spans []voucher.TextSpan) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("[unextractable page: %v]", r)
			spans = nil
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	pageW, pageH := mediaBoxSize(page)

	rows, err := page.GetTextByRow()
	if err != nil {
		return fmt.Sprintf("[unextractable page: %v]", err), nil
	}
	// rows come back in arbitrary order on some files; top of page first
	sort.Slice(rows, func(i, j int) bool { return rows[i].Position > rows[j].Position })

	var lines []string
	for _, row := range rows {
		var (
			words                  []string
			haveBox                bool
			minX, minY, maxX, maxY float64
		)
		for _, word := range row.Content {
			if word.S == "" {
				continue
			}
			words = append(words, word.S)
			height := word.FontSize
			if height == 0 {
				height = 12.0
			}
			x0, y0, x1, y1 := word.X, word.Y, word.X+word.W, word.Y+height
			if !haveBox {
				minX, minY, maxX, maxY = x0, y0, x1, y1
				haveBox = true
			} else {
				minX = min(minX, x0)
				minY = min(minY, y0)
				maxX = max(maxX, x1)
				maxY = max(maxY, y1)
			}
		}
		lineText := strings.TrimSpace(strings.Join(words, " "))
		if lineText == "" {
			continue
		}
		lines = append(lines, lineText)
		span := voucher.TextSpan{Page: pageNum, Text: lineText}
		if haveBox {
			bbox := normalizeBox(minX, minY, maxX, maxY, pageW, pageH, false)
			span.BBox = &bbox
		}
		spans = append(spans, span)
	}
	return strings.Join(lines, "\n"), spans
}

// mediaBoxSize resolves the page dimensions, walking up the page tree since
// MediaBox is inheritable. Defaults to US Letter when absent.
func mediaBoxSize(page pdf.Page) (float64, float64) {
	node := page.V
	for depth := 0; depth < 8 && !node.IsNull(); depth++ {
		box := node.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			x0 := box.Index(0).Float64()
			y0 := box.Index(1).Float64()
			x1 := box.Index(2).Float64()
			y1 := box.Index(3).Float64()
			if x1-x0 > 0 && y1-y0 > 0 {
				return x1 - x0, y1 - y0
			}
		}
		node = node.Key("Parent")
	}
	return defaultPageWidth, defaultPageHeight
}
