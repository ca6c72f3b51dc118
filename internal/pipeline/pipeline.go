// Package pipeline orchestrates one analysis run: ingest the document,
// extract the required fields, validate them, render the highlight PDF and
// persist the result. Stages are injected so each one can be replaced in
// tests.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shokenlabs/voucher-analyzer/internal/ingest"
	"github.com/shokenlabs/voucher-analyzer/internal/store"
	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// Parser turns raw bytes into a parsed document.
type Parser interface {
	Parse(data []byte) (*voucher.ParsedDocument, error)
}

// FieldExtractor produces structured voucher data for a parsed document.
type FieldExtractor interface {
	Extract(ctx context.Context, provider voucher.ProviderType, parsed *voucher.ParsedDocument) (*voucher.ExtractedVoucherData, error)
}

// Validator checks extracted data against the document requirements.
type Validator interface {
	Validate(data *voucher.ExtractedVoucherData) *voucher.ValidationReport
}

// Renderer produces the highlight PDF.
type Renderer interface {
	Render(original []byte, parsed *voucher.ParsedDocument, spans []voucher.HighlightSpan) ([]byte, error)
}

// Request describes one analysis run.
type Request struct {
	Data       []byte
	Provider   voucher.ProviderType
	SessionKey string
	Filename   string
}

// Controller runs the pipeline. Store is optional; with none configured
// results are simply not persisted.
type Controller struct {
	parser    Parser
	extractor FieldExtractor
	validator Validator
	renderer  Renderer
	store     store.AnalysisStore
	debug     bool
}

// NewController wires the stages together.
func NewController(parser Parser, extractor FieldExtractor, validator Validator, renderer Renderer, st store.AnalysisStore, debug bool) *Controller {
	return &Controller{
		parser:    parser,
		extractor: extractor,
		validator: validator,
		renderer:  renderer,
		store:     st,
		debug:     debug,
	}
}

// Analyze runs the full pipeline. Empty input is the caller's mistake and
// returns an error. Ingestion and extraction failures abort the run with an
// error message and an UNKNOWN validation outcome; an ingestion failure
// echoes the original bytes as the highlight PDF while an extraction failure
// keeps the parsed document for diagnostics. Rendering failure falls back to
// the original bytes with a warning, and a persistence failure is a warning
// because the analysis itself succeeded.
func (c *Controller) Analyze(ctx context.Context, req Request) (*voucher.VoucherAnalysisResult, error) {
	if len(req.Data) == 0 {
		return nil, ingest.ErrEmptyInput
	}

	result := voucher.NewVoucherAnalysisResult()
	result.SourceFilename = req.Filename

	parsed, err := c.parser.Parse(req.Data)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyInput) {
			return nil, err
		}
		result.Errors = append(result.Errors, fmt.Sprintf("document parse failed: %v", err))
		result.HighlightPDF = req.Data
		return result, nil
	}
	result.ParsedDocument = parsed

	extracted, err := c.extractor.Extract(ctx, req.Provider, parsed)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("field extraction failed: %v", err))
		return result, nil
	}
	result.Extracted = extracted

	result.Validation = c.validator.Validate(extracted)

	rendered, err := c.renderer.Render(req.Data, parsed, extracted.SourceHighlights)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("highlight rendering failed: %v", err))
		rendered = req.Data
	}
	result.HighlightPDF = rendered

	c.persist(ctx, req.SessionKey, result)
	return result, nil
}

// Validate runs ingestion, extraction and validation without rendering or
// persistence.
func (c *Controller) Validate(ctx context.Context, req Request) (*voucher.ValidationReport, error) {
	if len(req.Data) == 0 {
		return nil, ingest.ErrEmptyInput
	}
	parsed, err := c.parser.Parse(req.Data)
	if err != nil {
		return nil, fmt.Errorf("document parse failed: %w", err)
	}
	extracted, err := c.extractor.Extract(ctx, req.Provider, parsed)
	if err != nil {
		return nil, fmt.Errorf("field extraction failed: %w", err)
	}
	return c.validator.Validate(extracted), nil
}

// persist saves the result when both a store and a session key are present.
// Failures are warnings; the analysis already happened.
func (c *Controller) persist(ctx context.Context, key string, result *voucher.VoucherAnalysisResult) {
	if c.store == nil || key == "" {
		return
	}
	if err := c.store.Save(ctx, key, result); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("persist analysis failed: %v", err))
		if c.debug {
			log.Printf("pipeline: persist %s: %v", key, err)
		}
	}
}
