// Package extract implements the heuristic field-extraction engine. It is a
// pure function of the parsed document: candidates are generated from
// declarative keyword tables (rules.go), scored, ranked, and the winners are
// tied back to the token that backs them so the result can be highlighted.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// Engine extracts the four required voucher fields from a parsed document.
// The zero value is not usable; construct with NewEngine.
type Engine struct {
	titleLabels   []*regexp.Regexp
	companyLabels []*regexp.Regexp
	dateLabels    []*regexp.Regexp
	amountLabels  []*regexp.Regexp
}

// NewEngine returns an engine with all rule tables compiled.
func NewEngine() *Engine {
	return &Engine{
		titleLabels:   compileLabels(titleRules.Labels),
		companyLabels: compileLabels(companyRules.Labels),
		dateLabels:    compileLabels(dateRules.Labels),
		amountLabels:  compileLabels(amountRules.Labels),
	}
}

func compileLabels(labels []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(labels))
	for _, label := range labels {
		compiled = append(compiled, labeledValuePattern(label))
	}
	return compiled
}

// Extract runs all four field extractors and assembles the aggregate result.
// Highlight spans collect in the fixed order title, company, date, amount.
func (e *Engine) Extract(parsed *voucher.ParsedDocument) (*voucher.ExtractedVoucherData, error) {
	if parsed == nil {
		return nil, fmt.Errorf("nil document")
	}

	lines := collectLines(parsed)
	data := voucher.NewExtractedVoucherData()

	data.Title = e.extractTitle(parsed, lines)
	data.CompanyName = e.extractCompany(parsed, lines)
	data.ResolutionDate = e.extractDate(parsed, lines)
	data.DividendAmount = e.extractAmount(parsed, lines)

	for _, field := range data.RequiredFields() {
		data.SourceHighlights = append(data.SourceHighlights, field.Value.SourceSpans...)
	}
	return data, nil
}

// docLine is one non-empty line of document text tagged with its origin.
type docLine struct {
	Page  int // 1-based
	Index int // 0-based within the page
	Text  string
}

func collectLines(parsed *voucher.ParsedDocument) []docLine {
	var lines []docLine
	for pageIdx, page := range parsed.Pages {
		for lineIdx, raw := range strings.Split(page, "\n") {
			text := strings.TrimSpace(raw)
			if text == "" {
				continue
			}
			lines = append(lines, docLine{Page: pageIdx + 1, Index: lineIdx, Text: text})
		}
	}
	return lines
}

// candidate is a scored field value tied to the line it came from.
type candidate struct {
	value string
	score float64
	line  docLine
}

func bestCandidate(candidates []candidate) (candidate, bool) {
	if len(candidates) == 0 {
		return candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return best, true
}

// labeledCandidates finds "<label>: value" matches and label-then-next-line
// matches across all lines.
func labeledCandidates(lines []docLine, patterns []*regexp.Regexp, labels []string) []candidate {
	var out []candidate
	for i, line := range lines {
		for _, pattern := range patterns {
			if m := pattern.FindStringSubmatch(line.Text); m != nil {
				value := strings.TrimSpace(m[1])
				if value != "" {
					out = append(out, candidate{value: value, score: 10, line: line})
				}
			}
		}
		// bare label on its own line: the value is the next line
		for _, label := range labels {
			if strings.EqualFold(strings.TrimRight(line.Text, ":： "), label) && i+1 < len(lines) {
				next := lines[i+1]
				if next.Page == line.Page {
					out = append(out, candidate{value: next.Text, score: 8, line: next})
				}
			}
		}
	}
	return out
}

func containsAnyFold(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, needle := range needles {
		if strings.Contains(lower, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

// positionPenalty punishes candidates that appear later in the document.
// Titles and company names live near the top of the first page.
func positionPenalty(line docLine, pageWeight, lineWeight float64) float64 {
	return float64(line.Page-1)*pageWeight + float64(line.Index)*lineWeight
}

// confidenceFromScore maps a winning score onto a monotonic confidence that
// approaches but never reaches 1.0. Scores at or below zero sit at the floor.
func confidenceFromScore(score, floor float64) float64 {
	if score < 0 {
		score = 0
	}
	conf := floor + (0.97-floor)*(score/(score+8))
	if conf < floor {
		conf = floor
	}
	if conf >= 1 {
		conf = 0.99
	}
	return conf
}

// defaultBand is the fallback highlight region when no positioned token
// backs a value: a band across the bottom of the page.
var defaultBand = voucher.BBox{0, 0, 1, 0.2}

// findSpan locates a token whose text contains the value and turns it into a
// highlight span. Matching is case-insensitive, with a whitespace-stripped
// retry for values that tokenizers split differently.
func findSpan(parsed *voucher.ParsedDocument, value, label string) voucher.HighlightSpan {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle != "" {
		for _, tok := range parsed.Tokens {
			if strings.Contains(strings.ToLower(tok.Text), needle) {
				return spanFromToken(tok, label)
			}
		}
		squashed := squashWhitespace(needle)
		for _, tok := range parsed.Tokens {
			if strings.Contains(squashWhitespace(strings.ToLower(tok.Text)), squashed) {
				return spanFromToken(tok, label)
			}
		}
	}
	return voucher.HighlightSpan{Page: 1, BBox: defaultBand, Label: label}
}

func spanFromToken(tok voucher.TextSpan, label string) voucher.HighlightSpan {
	if tok.BBox != nil {
		return voucher.HighlightSpan{Page: tok.Page, BBox: *tok.BBox, Label: label}
	}
	return voucher.HighlightSpan{Page: tok.Page, BBox: defaultBand, Label: label}
}

func squashWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
