// Package voucher defines the core data model shared by every stage of the
// dividend-voucher analysis pipeline: parsed document content, extracted
// fields with provenance, validation reports and the aggregated analysis
// result.
package voucher

import (
	"fmt"
	"strings"
)

// BBox is a page-relative rectangle (x0, y0, x1, y1) normalized to [0,1] in
// both axes with a bottom-left origin, regardless of the coordinate
// convention of the source extractor.
type BBox [4]float64

// TextSpan is a positioned piece of text produced by the ingestion layer.
// BBox is nil when the source extractor provided no layout information.
type TextSpan struct {
	Page int    `json:"page"`
	Text string `json:"text"`
	BBox *BBox  `json:"bbox,omitempty"`
}

// ParsedDocument is the raw document content broken down for downstream
// processing. It is never mutated after construction.
type ParsedDocument struct {
	Pages    []string          `json:"pages"`
	Tokens   []TextSpan        `json:"tokens"`
	Metadata map[string]string `json:"metadata"`
}

// NewParsedDocument returns an empty document with initialized metadata.
func NewParsedDocument() *ParsedDocument {
	return &ParsedDocument{Metadata: make(map[string]string)}
}

// PageCount returns the number of pages in the document.
func (d *ParsedDocument) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.Pages)
}

// HighlightSpan identifies a highlightable region within the source document
// and the field it supports.
type HighlightSpan struct {
	Page  int    `json:"page"`
	BBox  BBox   `json:"bbox"`
	Label string `json:"label,omitempty"`
}

// FieldValue holds an extracted field along with provenance metadata.
// Confidence is a relative ranking signal, not a calibrated probability.
type FieldValue struct {
	Value       string          `json:"value,omitempty"`
	Confidence  float64         `json:"confidence,omitempty"`
	SourceSpans []HighlightSpan `json:"source_spans,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// IsSet reports whether the field carries a non-empty value.
func (f FieldValue) IsSet() bool {
	return strings.TrimSpace(f.Value) != ""
}

// ExtractedVoucherData is the structured data extracted from one voucher.
type ExtractedVoucherData struct {
	Title          FieldValue `json:"title"`
	CompanyName    FieldValue `json:"company_name"`
	ResolutionDate FieldValue `json:"resolution_date"`
	DividendAmount FieldValue `json:"dividend_amount"`

	// Others collects non-required fields an extractor chose to report.
	Others map[string]FieldValue `json:"others,omitempty"`

	// SourceHighlights is the union of all field spans in insertion order.
	SourceHighlights []HighlightSpan `json:"source_highlights,omitempty"`
}

// NewExtractedVoucherData returns an empty extraction result.
func NewExtractedVoucherData() *ExtractedVoucherData {
	return &ExtractedVoucherData{Others: make(map[string]FieldValue)}
}

// RequiredField pairs a requirement key with its extracted value.
type RequiredField struct {
	Name  string
	Value FieldValue
}

// RequiredFields returns the four required fields in their fixed
// validation/reporting order.
func (e *ExtractedVoucherData) RequiredFields() []RequiredField {
	return []RequiredField{
		{"title", e.Title},
		{"company_name", e.CompanyName},
		{"resolution_date", e.ResolutionDate},
		{"dividend_amount", e.DividendAmount},
	}
}

// RequirementState is the outcome of checking a single required field.
type RequirementState string

const (
	RequirementPass    RequirementState = "pass"
	RequirementFail    RequirementState = "fail"
	RequirementUnknown RequirementState = "unknown"
)

// RequirementStatus carries the state of one requirement plus a
// human-readable message for FAIL/UNKNOWN outcomes.
type RequirementStatus struct {
	Status  RequirementState `json:"status"`
	Message string           `json:"message,omitempty"`
}

// ValidationOutcome is the aggregated result over all requirements.
type ValidationOutcome string

const (
	OutcomePass    ValidationOutcome = "pass"
	OutcomeWarning ValidationOutcome = "warning"
	OutcomeFail    ValidationOutcome = "fail"
	OutcomeUnknown ValidationOutcome = "unknown"
)

// OutcomeFromRequirements derives the aggregate outcome with precedence
// FAIL > UNKNOWN (reported as WARNING) > PASS. No requirements yields
// UNKNOWN.
func OutcomeFromRequirements(statuses []RequirementStatus) ValidationOutcome {
	if len(statuses) == 0 {
		return OutcomeUnknown
	}
	outcome := OutcomePass
	for _, s := range statuses {
		switch s.Status {
		case RequirementFail:
			return OutcomeFail
		case RequirementUnknown:
			outcome = OutcomeWarning
		}
	}
	return outcome
}

// ValidationReport is an insertion-ordered map of requirement key to status.
type ValidationReport struct {
	Keys          []string                     `json:"keys"`
	Requirements  map[string]RequirementStatus `json:"requirements"`
	OverallStatus ValidationOutcome            `json:"overall_status"`
}

// NewValidationReport returns an empty report with UNKNOWN overall status.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{
		Requirements:  make(map[string]RequirementStatus),
		OverallStatus: OutcomeUnknown,
	}
}

// Register records the status for a requirement key and recomputes the
// overall outcome. Registering an existing key overwrites its status but
// keeps its original position.
func (r *ValidationReport) Register(key string, status RequirementStatus) {
	if _, seen := r.Requirements[key]; !seen {
		r.Keys = append(r.Keys, key)
	}
	r.Requirements[key] = status
	statuses := make([]RequirementStatus, 0, len(r.Keys))
	for _, k := range r.Keys {
		statuses = append(statuses, r.Requirements[k])
	}
	r.OverallStatus = OutcomeFromRequirements(statuses)
}

// ProviderType identifies a remote extraction backend.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderClaude ProviderType = "claude"
)

// ParseProvider maps a string onto a known provider, case-insensitively.
func ParseProvider(value string) (ProviderType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch ProviderType(normalized) {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderClaude:
		return ProviderClaude, nil
	}
	return "", fmt.Errorf("unknown provider: %s", value)
}

// VoucherAnalysisResult aggregates everything one analysis run produced.
// Errors are fatal pipeline failures; Warnings are recovered anomalies.
type VoucherAnalysisResult struct {
	ParsedDocument *ParsedDocument       `json:"parsed_document,omitempty"`
	Extracted      *ExtractedVoucherData `json:"extracted,omitempty"`
	Validation     *ValidationReport     `json:"validation"`
	HighlightPDF   []byte                `json:"highlight_pdf,omitempty"`
	Errors         []string              `json:"errors,omitempty"`
	Warnings       []string              `json:"warnings,omitempty"`
	SourceFilename string                `json:"source_filename,omitempty"`
}

// NewVoucherAnalysisResult returns an empty result with an empty validation
// report so OverallStatus is always answerable.
func NewVoucherAnalysisResult() *VoucherAnalysisResult {
	return &VoucherAnalysisResult{Validation: NewValidationReport()}
}
