package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// Extractor is the heuristic fallback the gateway uses when no provider can
// serve a request.
type Extractor interface {
	Extract(parsed *voucher.ParsedDocument) (*voucher.ExtractedVoucherData, error)
}

// Gateway routes extraction to a provider client, validating the structured
// response, and falls back to the local heuristic engine when the provider
// is unregistered or not implemented. Genuine provider failures propagate.
type Gateway struct {
	factory  *ClientFactory
	fallback Extractor
	debug    bool
}

// NewGateway wires a factory and a heuristic fallback together.
func NewGateway(factory *ClientFactory, fallback Extractor, debug bool) *Gateway {
	return &Gateway{factory: factory, fallback: fallback, debug: debug}
}

// Extract produces structured voucher data for a parsed document.
func (g *Gateway) Extract(ctx context.Context, provider voucher.ProviderType, parsed *voucher.ParsedDocument) (*voucher.ExtractedVoucherData, error) {
	client, err := g.factory.Client(provider)
	if err != nil {
		if g.debug {
			log.Printf("llm: no client for %q, using heuristic engine", provider)
		}
		return g.fallback.Extract(parsed)
	}

	response, err := client.Extract(ctx, parsed)
	if err != nil {
		if errors.Is(err, ErrNotImplemented) {
			if g.debug {
				log.Printf("llm: %s not implemented, using heuristic engine", provider)
			}
			return g.fallback.Extract(parsed)
		}
		return nil, fmt.Errorf("provider %s: %w", provider, err)
	}

	if err := validateResponse(response); err != nil {
		return nil, err
	}
	return mapResponse(response), nil
}

// mapResponse converts a schema-valid provider response onto the extraction
// model. Highlights are attached to the field their label names and always
// collected into the aggregate span list.
func mapResponse(response map[string]any) *voucher.ExtractedVoucherData {
	data := voucher.NewExtractedVoucherData()
	data.Title = fieldFromResponse(response, "title")
	data.CompanyName = fieldFromResponse(response, "company_name")
	data.ResolutionDate = fieldFromResponse(response, "resolution_date")
	data.DividendAmount = fieldFromResponse(response, "dividend_amount")

	for _, span := range spansFromResponse(response) {
		data.SourceHighlights = append(data.SourceHighlights, span)
		switch span.Label {
		case "title":
			data.Title.SourceSpans = append(data.Title.SourceSpans, span)
		case "company_name":
			data.CompanyName.SourceSpans = append(data.CompanyName.SourceSpans, span)
		case "resolution_date":
			data.ResolutionDate.SourceSpans = append(data.ResolutionDate.SourceSpans, span)
		case "dividend_amount":
			data.DividendAmount.SourceSpans = append(data.DividendAmount.SourceSpans, span)
		}
	}
	return data
}

func fieldFromResponse(response map[string]any, key string) voucher.FieldValue {
	value, _ := response[key].(string)
	value = strings.TrimSpace(value)
	if value == "" {
		return voucher.FieldValue{Notes: "provider returned no " + key}
	}
	return voucher.FieldValue{Value: value, Confidence: 0.9}
}

func spansFromResponse(response map[string]any) []voucher.HighlightSpan {
	raw, _ := response["highlights"].([]any)
	var spans []voucher.HighlightSpan
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		page, ok := asInt(entry["page"])
		if !ok || page < 1 {
			continue
		}
		box, ok := asBBox(entry["bbox"])
		if !ok {
			continue
		}
		label, _ := entry["label"].(string)
		spans = append(spans, voucher.HighlightSpan{Page: page, BBox: box, Label: label})
	}
	return spans
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asBBox(v any) (voucher.BBox, bool) {
	items, ok := v.([]any)
	if !ok || len(items) != 4 {
		return voucher.BBox{}, false
	}
	var box voucher.BBox
	for i, item := range items {
		f, ok := item.(float64)
		if !ok {
			return voucher.BBox{}, false
		}
		box[i] = f
	}
	return box, true
}
