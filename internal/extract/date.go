package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

const (
	dateLabeledConf = 0.9
	dateContextConf = 0.75
	dateAnyConf     = 0.6
)

// extractDate prefers an explicitly labeled resolution date, then any date
// co-occurring with meeting/resolution vocabulary, then the first date found
// anywhere. Record/effective/payment dates are adjacent but distinct dates
// on the same document and are excluded at every tier.
func (e *Engine) extractDate(parsed *voucher.ParsedDocument, lines []docLine) voucher.FieldValue {
	type tierMatch struct {
		value string
		line  docLine
	}
	var labeled, contextual, anywhere *tierMatch

	for i := range lines {
		line := lines[i]
		if containsAnyFold(line.Text, dateRules.Exclusions) {
			continue
		}
		value, ok := findDate(line.Text)
		if !ok {
			continue
		}
		m := &tierMatch{value: value, line: line}
		switch {
		case labeled == nil && matchesAnyLabel(e.dateLabels, line.Text):
			labeled = m
		case contextual == nil && containsAnyFold(line.Text, dateRules.Keywords):
			contextual = m
		case anywhere == nil:
			anywhere = m
		}
	}

	var (
		winner     *tierMatch
		confidence float64
	)
	switch {
	case labeled != nil:
		winner, confidence = labeled, dateLabeledConf
	case contextual != nil:
		winner, confidence = contextual, dateContextConf
	case anywhere != nil:
		winner, confidence = anywhere, dateAnyConf
	default:
		return voucher.FieldValue{Notes: "no resolution date found"}
	}

	span := findSpan(parsed, winner.line.Text, "resolution_date")
	return voucher.FieldValue{
		Value:       winner.value,
		Confidence:  confidence,
		SourceSpans: []voucher.HighlightSpan{span},
	}
}

func matchesAnyLabel(patterns []*regexp.Regexp, text string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// findDate recognizes the three supported notations and normalizes to
// YYYY-MM-DD.
func findDate(text string) (string, bool) {
	if m := dateReiwaPattern.FindStringSubmatch(text); m != nil {
		n := 1 // 元年 is year one of the era
		if m[1] != "元" {
			n, _ = strconv.Atoi(m[1])
		}
		return normalizeDate(reiwaEraBaseYear+n, atoi(m[2]), atoi(m[3])), true
	}
	if m := dateKanjiPattern.FindStringSubmatch(text); m != nil {
		return normalizeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])), true
	}
	if m := dateISOPattern.FindStringSubmatch(text); m != nil {
		return normalizeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])), true
	}
	return "", false
}

// normalizeDate formats a calendar-valid date via time.Date; out-of-range
// components fall back to zero-padded literals instead of failing.
func normalizeDate(year, month, day int) string {
	if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Year() == year && int(t.Month()) == month && t.Day() == day {
			return t.Format("2006-01-02")
		}
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
