package extract

import (
	"strconv"
	"strings"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

const (
	amountLabeledConf  = 0.9
	amountFallbackConf = 0.6

	okuMultiplier = 100_000_000
)

// extractAmount prefers a line explicitly labeled as the total dividend
// amount; per-share lines are excluded so the aggregate figure always wins
// over the per-share figure printed next to it. Falls back to any dividend
// line carrying an extractable number.
func (e *Engine) extractAmount(parsed *voucher.ParsedDocument, lines []docLine) voucher.FieldValue {
	for _, line := range lines {
		if containsAnyFold(line.Text, amountRules.Exclusions) &&
			!containsTotalLabel(line.Text) {
			continue
		}
		if !matchesAnyLabel(e.amountLabels, line.Text) {
			continue
		}
		if value, ok := extractNumber(line.Text); ok {
			span := findSpan(parsed, line.Text, "dividend_amount")
			return voucher.FieldValue{
				Value:       value,
				Confidence:  amountLabeledConf,
				SourceSpans: []voucher.HighlightSpan{span},
			}
		}
	}

	for _, line := range lines {
		if containsAnyFold(line.Text, amountRules.Exclusions) {
			continue
		}
		if !containsAnyFold(line.Text, amountRules.Keywords) {
			continue
		}
		if value, ok := extractNumber(line.Text); ok {
			span := findSpan(parsed, line.Text, "dividend_amount")
			return voucher.FieldValue{
				Value:       value,
				Confidence:  amountFallbackConf,
				SourceSpans: []voucher.HighlightSpan{span},
			}
		}
	}

	return voucher.FieldValue{Notes: "no dividend amount found"}
}

// containsTotalLabel reports whether a line names the aggregate amount even
// though it also mentions the per-share figure in parentheses.
func containsTotalLabel(text string) bool {
	lower := strings.ToLower(text)
	for _, label := range amountRules.Labels {
		l := strings.ToLower(label)
		if strings.Contains(l, "total") || strings.Contains(l, "総額") {
			if strings.Contains(lower, l) {
				return true
			}
		}
	}
	return false
}

// extractNumber pulls the first plausible amount out of a line: currency
// markers are stripped, a Japanese 億 (hundred-million) multiplier is
// applied, and plain comma-grouped integers or decimals are accepted as-is.
func extractNumber(text string) (string, bool) {
	cleaned := currencyMarkerPattern.ReplaceAllString(text, " ")

	if m := okuAmountPattern.FindStringSubmatch(text); m != nil {
		if base, err := strconv.ParseFloat(m[1], 64); err == nil {
			return groupDigits(int64(base * okuMultiplier)), true
		}
	}

	if m := numberPattern.FindString(cleaned); m != "" {
		return m, true
	}
	return "", false
}

// groupDigits renders an integer with comma separators.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
