package extract

import (
	"strings"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

const (
	companyLabeledScore  = 10.0
	companySuffixScoreJP = 8.0
	companySuffixScoreEN = 7.0
	companyAddressScore  = 4.0
	companyPagePenalty   = 3.0
	companyLinePenalty   = 0.1
	companyConfFloor     = 0.55
	addressLookback      = 3
)

var companySegmentDelimiters = []string{"、", "，", ",", ";", "；", "・", "\t", "  "}

// extractCompany ranks corporate-name candidates gathered from labeled
// lines, legal-form suffix matches and the address-block anchor. Narrative
// sentences that merely mention a company are rejected so the company's own
// name line always wins.
func (e *Engine) extractCompany(parsed *voucher.ParsedDocument, lines []docLine) voucher.FieldValue {
	var candidates []candidate

	for _, c := range labeledCandidates(lines, e.companyLabels, companyRules.Labels) {
		if value, ok := cleanCompanyCandidate(c.value); ok {
			candidates = append(candidates, candidate{
				value: value,
				score: companyLabeledScore - positionPenalty(c.line, companyPagePenalty, companyLinePenalty),
				line:  c.line,
			})
		}
	}

	for _, line := range lines {
		for _, segment := range splitSegments(line.Text) {
			if m := companySuffixJP.FindString(segment); m != "" {
				if value, ok := cleanCompanyCandidate(m); ok {
					candidates = append(candidates, candidate{
						value: value,
						score: companySuffixScoreJP - positionPenalty(line, companyPagePenalty, companyLinePenalty),
						line:  line,
					})
				}
			}
			if m := companySuffixEN.FindString(segment); m != "" {
				// require at least two capitalized tokens so ordinary
				// capitalized phrases do not qualify
				if len(capitalTokenPattern.FindAllString(m, -1)) >= 2 {
					if value, ok := cleanCompanyCandidate(m); ok {
						candidates = append(candidates, candidate{
							value: value,
							score: companySuffixScoreEN - positionPenalty(line, companyPagePenalty, companyLinePenalty),
							line:  line,
						})
					}
				}
			}
		}
	}

	candidates = append(candidates, addressAnchorCandidates(lines)...)

	best, ok := bestCandidate(candidates)
	if !ok {
		return voucher.FieldValue{Notes: "no company name candidate found"}
	}
	span := findSpan(parsed, best.value, "company")
	return voucher.FieldValue{
		Value:       best.value,
		Confidence:  confidenceFromScore(best.score, companyConfFloor),
		SourceSpans: []voucher.HighlightSpan{span},
	}
}

// addressAnchorCandidates takes the nearest preceding non-address line
// within reach of an address label as a weak company-name candidate.
func addressAnchorCandidates(lines []docLine) []candidate {
	var out []candidate
	for i, line := range lines {
		if !addressLabelPattern.MatchString(line.Text) {
			continue
		}
		for back := 1; back <= addressLookback && i-back >= 0; back++ {
			prev := lines[i-back]
			if prev.Page != line.Page || addressLabelPattern.MatchString(prev.Text) {
				continue
			}
			if value, ok := cleanCompanyCandidate(prev.Text); ok {
				out = append(out, candidate{
					value: value,
					score: companyAddressScore - positionPenalty(prev, companyPagePenalty, companyLinePenalty),
					line:  prev,
				})
				break
			}
		}
	}
	return out
}

func splitSegments(text string) []string {
	segments := []string{text}
	for _, delim := range companySegmentDelimiters {
		var next []string
		for _, seg := range segments {
			next = append(next, strings.Split(seg, delim)...)
		}
		segments = next
	}
	var out []string
	for _, seg := range segments {
		if s := strings.TrimSpace(seg); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// cleanCompanyCandidate normalizes a raw candidate and rejects narrative
// sentences. Full-width parenthesized abbreviations collapse to their
// canonical suffix and repeated suffix tokens are deduplicated.
func cleanCompanyCandidate(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	value = strings.Trim(value, "()（）[]「」 ")
	if value == "" {
		return "", false
	}
	if containsAnyFold(value, companyRules.RejectVerbs) {
		return "", false
	}

	value = strings.ReplaceAll(value, "㈱", "株式会社")
	value = strings.ReplaceAll(value, "（株）", "株式会社")
	value = strings.ReplaceAll(value, "(株)", "株式会社")
	value = collapseRepeatedSuffix(value, "株式会社")

	words := strings.Fields(value)
	for i := len(words) - 1; i > 0; i-- {
		if strings.EqualFold(words[i], words[i-1]) {
			words = append(words[:i], words[i+1:]...)
		}
	}
	value = strings.Join(words, " ")
	if value == "" {
		return "", false
	}
	return value, true
}

func collapseRepeatedSuffix(value, suffix string) string {
	doubled := suffix + suffix
	for strings.Contains(value, doubled) {
		value = strings.Replace(value, doubled, suffix, 1)
	}
	return value
}
