package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// Title scoring constants. These are tuning parameters, not semantics:
// adjust them against the regression scenarios, not in isolation.
const (
	titleBaseScore     = 5.0
	titlePagePenalty   = 6.0
	titleLinePenalty   = 0.8
	titleKeywordBonus  = 3.0
	titleSuffixBonus   = 4.0
	titleMinLen        = 4
	titleMaxLen        = 80
	titleSearchPages   = 2
	titleSearchLines   = 10
	titleConfFloor     = 0.55
	titleExactConf     = 0.93
)

// extractTitle prefers an exact match against the fixed document-title
// phrases; otherwise it scores every short line near the top of the first
// two pages. Narrative sentences are rejected outright so a resolution
// clause never beats the document heading.
func (e *Engine) extractTitle(parsed *voucher.ParsedDocument, lines []docLine) voucher.FieldValue {
	for _, line := range lines {
		if line.Page > titleSearchPages {
			break
		}
		for _, pattern := range titleExactPatterns {
			if pattern.MatchString(line.Text) {
				span := findSpan(parsed, line.Text, "title")
				return voucher.FieldValue{
					Value:       line.Text,
					Confidence:  titleExactConf,
					SourceSpans: []voucher.HighlightSpan{span},
				}
			}
		}
	}

	var candidates []candidate
	for _, line := range lines {
		if line.Page > titleSearchPages || line.Index >= titleSearchLines {
			continue
		}
		if score, ok := scoreTitleLine(line); ok {
			candidates = append(candidates, candidate{value: line.Text, score: score, line: line})
		}
	}

	best, ok := bestCandidate(candidates)
	if !ok || best.score <= 0 {
		return voucher.FieldValue{Notes: "no title candidate found"}
	}
	span := findSpan(parsed, best.value, "title")
	return voucher.FieldValue{
		Value:       best.value,
		Confidence:  confidenceFromScore(best.score, titleConfFloor),
		SourceSpans: []voucher.HighlightSpan{span},
	}
}

func scoreTitleLine(line docLine) (float64, bool) {
	length := utf8.RuneCountInString(line.Text)
	if length < titleMinLen || length > titleMaxLen {
		return 0, false
	}
	if containsAnyFold(line.Text, titleRules.RejectVerbs) {
		return 0, false
	}
	if strings.HasSuffix(line.Text, ".") || strings.HasSuffix(line.Text, "。") {
		// trailing sentence punctuation marks narrative text, not a title
		return 0, false
	}

	score := titleBaseScore - positionPenalty(line, titlePagePenalty, titleLinePenalty)
	lower := strings.ToLower(line.Text)
	for _, keyword := range titleRules.Keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			score += titleKeywordBonus
		}
	}
	for _, suffix := range titleRules.Suffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			score += titleSuffixBonus
			break
		}
	}
	return score, true
}
