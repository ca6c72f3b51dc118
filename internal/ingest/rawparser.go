package ingest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// rawExtractor is the last-resort PDF reader. It scans the raw bytes for
// indirect objects without relying on a cross-reference table, so it copes
// with truncated or otherwise non-conforming files the real libraries reject.
type rawExtractor struct{}

func (rawExtractor) Name() string { return "raw" }

var (
	objHeaderPattern    = regexp.MustCompile(`(?s)(\d+)\s+(\d+)\s+obj`)
	pageTypePattern     = regexp.MustCompile(`/Type\s*/Page\b`)
	pagesTypePattern    = regexp.MustCompile(`/Type\s*/Pages\b`)
	contentsRefPattern  = regexp.MustCompile(`/Contents\s+(\d+)\s+\d+\s+R`)
	contentsListPattern = regexp.MustCompile(`/Contents\s*\[([^\]]*)\]`)
	indirectRefPattern  = regexp.MustCompile(`(\d+)\s+\d+\s+R`)
	flatePattern        = regexp.MustCompile(`/Filter\s*(?:\[\s*)?/FlateDecode`)
)

func (rawExtractor) Extract(data []byte) (*voucher.ParsedDocument, error) {
	objects := scanObjects(data)
	if len(objects) == 0 {
		return nil, fmt.Errorf("raw parser: no indirect objects found")
	}

	doc := voucher.NewParsedDocument()
	for _, obj := range objectsInOrder(objects) {
		if !isPageObject(obj.body) {
			continue
		}
		pageNum := len(doc.Pages) + 1
		var lines []contentLine
		for _, ref := range contentRefs(obj.body) {
			stream, ok := objects[ref]
			if !ok {
				continue
			}
			payload := streamPayload(stream.body)
			if payload == nil {
				continue
			}
			lines = append(lines, tokenizeContent(payload)...)
		}
		text, spans := assembleContentLines(lines, pageNum, defaultPageWidth, defaultPageHeight)
		doc.Pages = append(doc.Pages, text)
		doc.Tokens = append(doc.Tokens, spans...)
	}

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("raw parser: no page objects found")
	}
	doc.Metadata["page_count"] = strconv.Itoa(len(doc.Pages))
	return doc, nil
}

type rawObject struct {
	number int
	offset int
	body   []byte
}

// scanObjects builds an object table by locating every "N G obj … endobj"
// run in the input. Later definitions of the same object number win, which
// matches incremental-update semantics closely enough for text recovery.
func scanObjects(data []byte) map[int]rawObject {
	objects := make(map[int]rawObject)
	for _, loc := range objHeaderPattern.FindAllSubmatchIndex(data, -1) {
		number, err := strconv.Atoi(string(data[loc[2]:loc[3]]))
		if err != nil {
			continue
		}
		bodyStart := loc[1]
		end := bytes.Index(data[bodyStart:], []byte("endobj"))
		if end < 0 {
			end = len(data) - bodyStart
		}
		objects[number] = rawObject{
			number: number,
			offset: loc[0],
			body:   data[bodyStart : bodyStart+end],
		}
	}
	return objects
}

func objectsInOrder(objects map[int]rawObject) []rawObject {
	ordered := make([]rawObject, 0, len(objects))
	for _, obj := range objects {
		ordered = append(ordered, obj)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].offset < ordered[j].offset })
	return ordered
}

func isPageObject(body []byte) bool {
	return pageTypePattern.Match(body) && !pagesTypePattern.Match(body)
}

// contentRefs resolves the /Contents entry: either a single indirect
// reference or an array of them.
func contentRefs(body []byte) []int {
	if m := contentsListPattern.FindSubmatch(body); m != nil {
		var refs []int
		for _, ref := range indirectRefPattern.FindAllSubmatch(m[1], -1) {
			if n, err := strconv.Atoi(string(ref[1])); err == nil {
				refs = append(refs, n)
			}
		}
		return refs
	}
	if m := contentsRefPattern.FindSubmatch(body); m != nil {
		if n, err := strconv.Atoi(string(m[1])); err == nil {
			return []int{n}
		}
	}
	return nil
}

// streamPayload slices the stream body out of an object and inflates it when
// the dictionary declares FlateDecode. A stream that fails to inflate is
// treated as empty rather than failing the page.
func streamPayload(body []byte) []byte {
	start := bytes.Index(body, []byte("stream"))
	if start < 0 {
		return nil
	}
	dict := body[:start]
	payload := body[start+len("stream"):]
	if bytes.HasPrefix(payload, []byte("\r\n")) {
		payload = payload[2:]
	} else if bytes.HasPrefix(payload, []byte("\n")) {
		payload = payload[1:]
	}
	if end := bytes.Index(payload, []byte("endstream")); end >= 0 {
		payload = payload[:end]
	}
	payload = bytes.TrimRight(payload, "\r\n")

	if !flatePattern.Match(dict) {
		return payload
	}
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return []byte{}
	}
	defer zr.Close()
	inflated, err := io.ReadAll(zr)
	if err != nil {
		return []byte{}
	}
	return inflated
}
