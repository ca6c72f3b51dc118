package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

type stubExtractor struct {
	called bool
}

func (s *stubExtractor) Extract(parsed *voucher.ParsedDocument) (*voucher.ExtractedVoucherData, error) {
	s.called = true
	data := voucher.NewExtractedVoucherData()
	data.Title = voucher.FieldValue{Value: "fallback title"}
	return data, nil
}

type stubClient struct {
	provider voucher.ProviderType
	response map[string]any
	err      error
}

func (c *stubClient) Provider() voucher.ProviderType { return c.provider }

func (c *stubClient) Extract(ctx context.Context, parsed *voucher.ParsedDocument) (map[string]any, error) {
	return c.response, c.err
}

func TestGatewayFallsBackWithoutClient(t *testing.T) {
	fallback := &stubExtractor{}
	gateway := NewGateway(NewClientFactory(), fallback, false)

	data, err := gateway.Extract(context.Background(), voucher.ProviderOpenAI, voucher.NewParsedDocument())
	require.NoError(t, err)
	assert.True(t, fallback.called)
	assert.Equal(t, "fallback title", data.Title.Value)
}

func TestGatewayFallsBackOnNotImplemented(t *testing.T) {
	fallback := &stubExtractor{}
	factory := NewClientFactory(NewOpenAIClient("key", ""))
	gateway := NewGateway(factory, fallback, false)

	data, err := gateway.Extract(context.Background(), voucher.ProviderOpenAI, voucher.NewParsedDocument())
	require.NoError(t, err)
	assert.True(t, fallback.called)
	assert.Equal(t, "fallback title", data.Title.Value)
}

func TestGatewayPropagatesClientErrors(t *testing.T) {
	fallback := &stubExtractor{}
	boom := errors.New("rate limited")
	factory := NewClientFactory(&stubClient{provider: voucher.ProviderClaude, err: boom})
	gateway := NewGateway(factory, fallback, false)

	_, err := gateway.Extract(context.Background(), voucher.ProviderClaude, voucher.NewParsedDocument())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, fallback.called)
}

func TestGatewayRejectsInvalidResponse(t *testing.T) {
	factory := NewClientFactory(&stubClient{
		provider: voucher.ProviderClaude,
		response: map[string]any{"title": "only a title"},
	})
	gateway := NewGateway(factory, &stubExtractor{}, false)

	_, err := gateway.Extract(context.Background(), voucher.ProviderClaude, voucher.NewParsedDocument())
	require.Error(t, err)
}

func TestGatewayMapsValidResponse(t *testing.T) {
	response := map[string]any{
		"title":           "Dividend Resolution",
		"company_name":    "ACME Holdings K.K.",
		"resolution_date": "2024-04-15",
		"dividend_amount": "36,000,000",
		"highlights": []any{
			map[string]any{
				"page":  float64(1),
				"bbox":  []any{0.1, 0.9, 0.6, 0.95},
				"label": "title",
			},
			map[string]any{
				"page": float64(2),
				"bbox": []any{0.0, 0.0, 1.0, 0.2},
			},
		},
	}
	factory := NewClientFactory(&stubClient{provider: voucher.ProviderOpenAI, response: response})
	gateway := NewGateway(factory, &stubExtractor{}, false)

	data, err := gateway.Extract(context.Background(), voucher.ProviderOpenAI, voucher.NewParsedDocument())
	require.NoError(t, err)

	assert.Equal(t, "Dividend Resolution", data.Title.Value)
	assert.Equal(t, "ACME Holdings K.K.", data.CompanyName.Value)
	assert.Equal(t, "2024-04-15", data.ResolutionDate.Value)
	assert.Equal(t, "36,000,000", data.DividendAmount.Value)

	require.Len(t, data.SourceHighlights, 2)
	assert.Equal(t, 1, data.SourceHighlights[0].Page)
	assert.Equal(t, voucher.BBox{0.1, 0.9, 0.6, 0.95}, data.SourceHighlights[0].BBox)

	// labeled highlight also attaches to its field
	require.Len(t, data.Title.SourceSpans, 1)
	assert.Equal(t, "title", data.Title.SourceSpans[0].Label)
}

func TestValidateResponseBBoxBounds(t *testing.T) {
	response := map[string]any{
		"title":           "t",
		"company_name":    "c",
		"resolution_date": "2024-01-01",
		"dividend_amount": "1",
		"highlights": []any{
			map[string]any{"page": float64(1), "bbox": []any{-0.5, 0.0, 1.0, 0.2}},
		},
	}
	err := validateResponse(response)
	require.Error(t, err, "out-of-range coordinates must be rejected")
}

func TestClientFactoryUnknownProvider(t *testing.T) {
	factory := NewClientFactory()
	_, err := factory.Client(voucher.ProviderClaude)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
