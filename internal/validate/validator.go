// Package validate checks extracted voucher fields against the document
// requirements and produces the per-field and aggregated report consumed by
// the pipeline and the MCP tools.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// Requirement messages surface in reports shown to Japanese back-office
// users, so they stay in Japanese.
const (
	msgTitleMissing   = "配当決議書のタイトルが確認できません"
	msgCompanyMissing = "配当決議の会社名が確認できません"
	msgDateMissing    = "配当決議日が確認できません"
	msgAmountMissing  = "配当金額が確認できません"
	msgDateFormat     = "日付形式が不正です (YYYY-MM-DD)"
	msgAmountFormat   = "金額の形式が不正です"
)

var missingMessages = map[string]string{
	"title":           msgTitleMissing,
	"company_name":    msgCompanyMissing,
	"resolution_date": msgDateMissing,
	"dividend_amount": msgAmountMissing,
}

var amountPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Validator checks one extraction result. The zero value is ready to use.
type Validator struct{}

// NewValidator returns a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate registers a status for every required field in the fixed
// reporting order. A nil or empty extraction still yields a full report with
// every requirement failed.
func (v *Validator) Validate(data *voucher.ExtractedVoucherData) *voucher.ValidationReport {
	report := voucher.NewValidationReport()
	if data == nil {
		data = voucher.NewExtractedVoucherData()
	}
	for _, field := range data.RequiredFields() {
		report.Register(field.Name, v.checkField(field.Name, field.Value))
	}
	return report
}

func (v *Validator) checkField(name string, value voucher.FieldValue) voucher.RequirementStatus {
	if !value.IsSet() {
		return voucher.RequirementStatus{
			Status:  voucher.RequirementFail,
			Message: missingMessages[name],
		}
	}
	switch name {
	case "resolution_date":
		if !validDate(value.Value) {
			return voucher.RequirementStatus{
				Status:  voucher.RequirementFail,
				Message: msgDateFormat,
			}
		}
	case "dividend_amount":
		if !validAmount(value.Value) {
			return voucher.RequirementStatus{
				Status:  voucher.RequirementFail,
				Message: msgAmountFormat,
			}
		}
	}
	return voucher.RequirementStatus{Status: voucher.RequirementPass}
}

// validDate accepts calendar-valid YYYY-MM-DD only.
func validDate(value string) bool {
	_, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	return err == nil
}

// validAmount accepts a decimal number, with or without thousands
// separators. Separators are stripped before the check so "36,000,000" and
// "36000000" are equally valid.
func validAmount(value string) bool {
	stripped := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	return amountPattern.MatchString(stripped)
}
