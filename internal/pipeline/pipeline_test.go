package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shokenlabs/voucher-analyzer/internal/extract"
	"github.com/shokenlabs/voucher-analyzer/internal/highlight"
	"github.com/shokenlabs/voucher-analyzer/internal/ingest"
	"github.com/shokenlabs/voucher-analyzer/internal/llm"
	"github.com/shokenlabs/voucher-analyzer/internal/store"
	"github.com/shokenlabs/voucher-analyzer/internal/validate"
	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

var sampleVoucher = []byte("Dividend Resolution\nCompany: ACME Holdings\nDate: 2024-01-01\nAmount: 1000000\n")

func newTestController(st store.AnalysisStore, renderer Renderer) *Controller {
	if renderer == nil {
		renderer = highlight.NewRenderer()
	}
	gateway := llm.NewGateway(llm.NewClientFactory(), extract.NewEngine(), false)
	return NewController(ingest.NewIngestor(), gateway, validate.NewValidator(), renderer, st, false)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	st := store.NewMemoryStore()
	controller := newTestController(st, nil)

	result, err := controller.Analyze(context.Background(), Request{
		Data:       sampleVoucher,
		Provider:   voucher.ProviderOpenAI,
		SessionKey: "session-1",
		Filename:   "resolution.txt",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	assert.Equal(t, voucher.OutcomePass, result.Validation.OverallStatus)
	assert.Equal(t, "ACME Holdings", result.Extracted.CompanyName.Value)
	assert.Equal(t, "2024-01-01", result.Extracted.ResolutionDate.Value)
	assert.Equal(t, "1000000", result.Extracted.DividendAmount.Value)
	assert.True(t, bytes.HasPrefix(result.HighlightPDF, []byte("%PDF")))

	// the result is retrievable through the store
	stored, err := st.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, "resolution.txt", stored.SourceFilename)
	assert.Equal(t, voucher.OutcomePass, stored.Validation.OverallStatus)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	controller := newTestController(nil, nil)
	_, err := controller.Analyze(context.Background(), Request{})
	require.ErrorIs(t, err, ingest.ErrEmptyInput)
}

type failingRenderer struct{}

func (failingRenderer) Render([]byte, *voucher.ParsedDocument, []voucher.HighlightSpan) ([]byte, error) {
	return nil, errors.New("render backend unavailable")
}

func TestAnalyzeRenderFailureDegradesToOriginal(t *testing.T) {
	controller := newTestController(store.NewMemoryStore(), failingRenderer{})

	result, err := controller.Analyze(context.Background(), Request{
		Data:     sampleVoucher,
		Provider: voucher.ProviderOpenAI,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Errors, "a render failure is not fatal")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "highlight rendering failed")
	assert.Equal(t, sampleVoucher, result.HighlightPDF, "original bytes must pass through")
	assert.Equal(t, voucher.OutcomePass, result.Validation.OverallStatus)
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, voucher.ProviderType, *voucher.ParsedDocument) (*voucher.ExtractedVoucherData, error) {
	return nil, errors.New("provider exploded")
}

func TestAnalyzeExtractionFailureAborts(t *testing.T) {
	controller := NewController(
		ingest.NewIngestor(),
		failingExtractor{},
		validate.NewValidator(),
		highlight.NewRenderer(),
		nil,
		false,
	)

	result, err := controller.Analyze(context.Background(), Request{
		Data:     sampleVoucher,
		Provider: voucher.ProviderOpenAI,
	})
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "field extraction failed")
	assert.Nil(t, result.Extracted)
	assert.NotNil(t, result.ParsedDocument, "parsed document is kept for diagnostics")
	assert.Empty(t, result.HighlightPDF, "no rendering runs after an extraction failure")
	assert.Equal(t, voucher.OutcomeUnknown, result.Validation.OverallStatus)
	assert.Empty(t, result.Validation.Keys, "no validation stage ran")
}

func TestAnalyzeWithoutStoreOrSession(t *testing.T) {
	// no store and no session key must not panic or warn
	controller := newTestController(nil, nil)
	result, err := controller.Analyze(context.Background(), Request{
		Data:     sampleVoucher,
		Provider: voucher.ProviderOpenAI,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
}

func TestValidateShortCircuit(t *testing.T) {
	st := store.NewMemoryStore()
	controller := newTestController(st, nil)

	report, err := controller.Validate(context.Background(), Request{
		Data:     sampleVoucher,
		Provider: voucher.ProviderOpenAI,
	})
	require.NoError(t, err)
	assert.Equal(t, voucher.OutcomePass, report.OverallStatus)

	// Validate never persists
	keys, err := st.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAnalyzeIncompleteDocumentWarns(t *testing.T) {
	controller := newTestController(nil, nil)

	result, err := controller.Analyze(context.Background(), Request{
		Data:     []byte("Some unrelated memo without any dividend facts."),
		Provider: voucher.ProviderOpenAI,
	})
	require.NoError(t, err)
	assert.Equal(t, voucher.OutcomeFail, result.Validation.OverallStatus)
}
