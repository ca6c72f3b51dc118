package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// pdfcpuExtractor uses pdfcpu to resolve the document structure and hand
// back decompressed page content streams, which the shared tokenizer turns
// into text. Positions are approximate, derived from Tm/Td operands.
type pdfcpuExtractor struct{}

func (pdfcpuExtractor) Name() string { return "pdfcpu" }

func (pdfcpuExtractor) Extract(data []byte) (*voucher.ParsedDocument, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	dims, err := ctx.PageDims()
	if err != nil {
		dims = nil
	}

	doc := voucher.NewParsedDocument()
	for pageNum := 1; pageNum <= ctx.PageCount; pageNum++ {
		pageW, pageH := defaultPageWidth, defaultPageHeight
		if pageNum-1 < len(dims) {
			pageW, pageH = dims[pageNum-1].Width, dims[pageNum-1].Height
		}
		text, spans := extractPdfcpuPage(ctx, pageNum, pageW, pageH)
		doc.Pages = append(doc.Pages, text)
		doc.Tokens = append(doc.Tokens, spans...)
	}
	doc.Metadata["page_count"] = strconv.Itoa(ctx.PageCount)
	return doc, nil
}

// extractPdfcpuPage contains per-page failures so one broken content stream
// does not abort the rest of the document.
func extractPdfcpuPage(ctx *model.Context, pageNum int, pageW, pageH float64) (text string, spans []voucher.TextSpan) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("[unextractable page: %v]", r)
			spans = nil
		}
	}()

	reader, err := pdfcpu.ExtractPageContent(ctx, pageNum)
	if err != nil || reader == nil {
		return "", nil
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", nil
	}
	return assembleContentLines(tokenizeContent(content), pageNum, pageW, pageH)
}
