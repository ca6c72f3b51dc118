package validate

import (
	"testing"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

func completeData() *voucher.ExtractedVoucherData {
	data := voucher.NewExtractedVoucherData()
	data.Title = voucher.FieldValue{Value: "配当決議書"}
	data.CompanyName = voucher.FieldValue{Value: "株式会社サンプル"}
	data.ResolutionDate = voucher.FieldValue{Value: "2024-04-15"}
	data.DividendAmount = voucher.FieldValue{Value: "36,000,000"}
	return data
}

func TestValidateAllFieldsPass(t *testing.T) {
	report := NewValidator().Validate(completeData())

	if report.OverallStatus != voucher.OutcomePass {
		t.Errorf("expected pass, got %v", report.OverallStatus)
	}
	for key, status := range report.Requirements {
		if status.Status != voucher.RequirementPass {
			t.Errorf("%s: expected pass, got %v (%s)", key, status.Status, status.Message)
		}
	}
}

func TestValidateReportOrder(t *testing.T) {
	report := NewValidator().Validate(completeData())

	want := []string{"title", "company_name", "resolution_date", "dividend_amount"}
	if len(report.Keys) != len(want) {
		t.Fatalf("expected %d requirements, got %d", len(want), len(report.Keys))
	}
	for i, key := range want {
		if report.Keys[i] != key {
			t.Errorf("position %d: expected %s, got %s", i, key, report.Keys[i])
		}
	}
}

func TestValidateMissingFieldMessages(t *testing.T) {
	report := NewValidator().Validate(voucher.NewExtractedVoucherData())

	if report.OverallStatus != voucher.OutcomeFail {
		t.Errorf("expected fail for empty extraction, got %v", report.OverallStatus)
	}

	wantMessages := map[string]string{
		"title":           "配当決議書のタイトルが確認できません",
		"company_name":    "配当決議の会社名が確認できません",
		"resolution_date": "配当決議日が確認できません",
		"dividend_amount": "配当金額が確認できません",
	}
	for key, want := range wantMessages {
		status, ok := report.Requirements[key]
		if !ok {
			t.Errorf("missing requirement %s", key)
			continue
		}
		if status.Status != voucher.RequirementFail {
			t.Errorf("%s: expected fail, got %v", key, status.Status)
		}
		if status.Message != want {
			t.Errorf("%s: expected message %q, got %q", key, want, status.Message)
		}
	}
}

func TestValidateNilExtraction(t *testing.T) {
	report := NewValidator().Validate(nil)
	if report.OverallStatus != voucher.OutcomeFail {
		t.Errorf("nil extraction must fail every requirement, got %v", report.OverallStatus)
	}
	if len(report.Keys) != 4 {
		t.Errorf("expected full report for nil extraction, got %d keys", len(report.Keys))
	}
}

func TestValidateDateFormat(t *testing.T) {
	tests := []struct {
		value string
		want  voucher.RequirementState
	}{
		{"2024-04-15", voucher.RequirementPass},
		{"2024-02-31", voucher.RequirementFail},
		{"2024/04/15", voucher.RequirementFail},
		{"令和6年4月15日", voucher.RequirementFail},
		{"15-04-2024", voucher.RequirementFail},
	}

	for _, tt := range tests {
		data := completeData()
		data.ResolutionDate = voucher.FieldValue{Value: tt.value}
		report := NewValidator().Validate(data)
		status := report.Requirements["resolution_date"]
		if status.Status != tt.want {
			t.Errorf("date %q: expected %v, got %v", tt.value, tt.want, status.Status)
		}
		if tt.want == voucher.RequirementFail && status.Message != "日付形式が不正です (YYYY-MM-DD)" {
			t.Errorf("date %q: unexpected message %q", tt.value, status.Message)
		}
	}
}

func TestValidateAmountFormat(t *testing.T) {
	tests := []struct {
		value string
		want  voucher.RequirementState
	}{
		{"36,000,000", voucher.RequirementPass},
		{"36000000", voucher.RequirementPass},
		{"1234.56", voucher.RequirementPass},
		{"-500", voucher.RequirementPass},
		{"36,000,000円", voucher.RequirementFail},
		{"JPY 100", voucher.RequirementFail},
		{"about a million", voucher.RequirementFail},
	}

	for _, tt := range tests {
		data := completeData()
		data.DividendAmount = voucher.FieldValue{Value: tt.value}
		report := NewValidator().Validate(data)
		status := report.Requirements["dividend_amount"]
		if status.Status != tt.want {
			t.Errorf("amount %q: expected %v, got %v", tt.value, tt.want, status.Status)
		}
		if tt.want == voucher.RequirementFail && status.Message != "金額の形式が不正です" {
			t.Errorf("amount %q: unexpected message %q", tt.value, status.Message)
		}
	}
}

func TestValidatePassRequiresAllFour(t *testing.T) {
	data := completeData()
	data.CompanyName = voucher.FieldValue{}
	report := NewValidator().Validate(data)
	if report.OverallStatus != voucher.OutcomeFail {
		t.Errorf("one missing field must fail overall, got %v", report.OverallStatus)
	}
}
