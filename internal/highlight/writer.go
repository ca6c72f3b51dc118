// Package highlight renders an annotated PDF from a parsed document: the
// extracted text re-set on A4 pages with yellow bands drawn behind the
// regions that back the extracted fields. The writer emits the PDF object
// graph directly so the output has no dependency on the input file's
// internal structure.
package highlight

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// Page geometry. A4 in PDF units with a uniform margin.
const (
	pageWidth  = 595.0
	pageHeight = 842.0
	margin     = 48.0

	// Text and bands share the margin box, so normalized coordinates map
	// into it rather than onto the full page.
	usableWidth  = pageWidth - 2*margin
	usableHeight = pageHeight - 2*margin

	fontSize = 12.0
	leading  = 16.0

	// Degenerate highlight boxes still get a visible band.
	minBandWidth  = 2.0
	minBandHeight = 0.8 * leading
)

// Renderer builds highlight PDFs. The zero value is ready to use.
type Renderer struct{}

// NewRenderer returns a renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the annotated PDF. With no parsed content or no spans
// there is nothing to annotate and the original bytes pass through
// untouched.
func (r *Renderer) Render(original []byte, parsed *voucher.ParsedDocument, spans []voucher.HighlightSpan) ([]byte, error) {
	if parsed == nil || parsed.PageCount() == 0 || len(spans) == 0 {
		return original, nil
	}

	byPage := make(map[int][]voucher.HighlightSpan)
	for _, span := range spans {
		byPage[span.Page] = append(byPage[span.Page], span)
	}

	var arena objectArena

	pageCount := parsed.PageCount()
	// Object layout: 1 catalog, 2 page tree, 3 font, then one page object
	// and one content stream per page.
	const firstPageObj = 4
	kids := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", firstPageObj+2*i))
	}

	arena.add([]byte("<< /Type /Catalog /Pages 2 0 R >>"))
	arena.add([]byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), pageCount)))
	arena.add([]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"))

	for i, pageText := range parsed.Pages {
		pageObj := firstPageObj + 2*i
		contentObj := pageObj + 1
		arena.add([]byte(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			pageWidth, pageHeight, contentObj)))

		content := pageContent(pageText, byPage[i+1])
		arena.add([]byte(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)))
	}

	return arena.render(1), nil
}

// pageContent builds one page's content stream: highlight bands first so the
// text draws on top of them.
func pageContent(pageText string, spans []voucher.HighlightSpan) string {
	var buf bytes.Buffer

	for _, span := range spans {
		x0 := clamp01(span.BBox[0])
		y0 := clamp01(span.BBox[1])
		x1 := clamp01(span.BBox[2])
		y1 := clamp01(span.BBox[3])

		x := margin + x0*usableWidth
		y := margin + y0*usableHeight
		w := (x1 - x0) * usableWidth
		h := (y1 - y0) * usableHeight
		if w < minBandWidth {
			w = minBandWidth
		}
		if h < minBandHeight {
			h = minBandHeight
		}
		// q/Q confines the fill color to the band; the text keeps the
		// default black fill.
		fmt.Fprintf(&buf, "q\n1 1 0 rg\n%.2f %.2f %.2f %.2f re\nf\nQ\n", x, y, w, h)
	}

	buf.WriteString("BT\n")
	fmt.Fprintf(&buf, "/F1 %g Tf\n%g TL\n", fontSize, leading)
	fmt.Fprintf(&buf, "1 0 0 1 %g %g Tm\n", margin, pageHeight-margin)

	y := pageHeight - margin
	for _, line := range strings.Split(pageText, "\n") {
		if y < margin {
			break
		}
		fmt.Fprintf(&buf, "(%s) Tj\nT*\n", escapeLiteral(line))
		y -= leading
	}
	buf.WriteString("ET")

	return buf.String()
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

// escapeLiteral escapes the characters with meaning inside a PDF literal
// string.
func escapeLiteral(s string) string {
	var buf strings.Builder
	for _, b := range []byte(s) {
		switch b {
		case '\\':
			buf.WriteString(`\\`)
		case '(':
			buf.WriteString(`\(`)
		case ')':
			buf.WriteString(`\)`)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteByte(b)
		}
	}
	return buf.String()
}

// objectArena accumulates numbered indirect objects and serializes the file
// in one pass, recording byte offsets for the cross-reference table as it
// goes.
type objectArena struct {
	objects [][]byte
}

// add appends an object body and returns its 1-based object number.
func (a *objectArena) add(body []byte) int {
	a.objects = append(a.objects, body)
	return len(a.objects)
}

// render emits header, objects, xref table and trailer.
func (a *objectArena) render(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%")
	buf.Write([]byte{0xe2, 0xe3, 0xcf, 0xd3})
	buf.WriteByte('\n')

	offsets := make([]int, len(a.objects))
	for i, body := range a.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(body)
		buf.WriteString("\nendobj\n")
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(a.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(a.objects)+1, root, xrefStart)

	return buf.Bytes()
}
