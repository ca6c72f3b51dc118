package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/shokenlabs/voucher-analyzer/internal/extract"
	"github.com/shokenlabs/voucher-analyzer/internal/highlight"
	"github.com/shokenlabs/voucher-analyzer/internal/ingest"
	"github.com/shokenlabs/voucher-analyzer/internal/llm"
	"github.com/shokenlabs/voucher-analyzer/internal/pipeline"
	"github.com/shokenlabs/voucher-analyzer/internal/validate"
	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

var (
	providerName  = flag.String("provider", "openai", "Extraction provider: openai, claude")
	outputFormat  = flag.String("format", "text", "Output format: text, json")
	highlightPath = flag.String("output", "", "Write the highlight PDF to this path")
	help          = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: document file path required\n\n")
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	docPath := flag.Arg(0)
	data, err := os.ReadFile(docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read file %s: %v\n", docPath, err)
		os.Exit(1)
	}

	provider, err := voucher.ParseProvider(*providerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := analyzeDocument(data, provider, filepath.Base(docPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing document: %v\n", err)
		os.Exit(1)
	}

	if *highlightPath != "" {
		if err := os.WriteFile(*highlightPath, result.HighlightPDF, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing highlight PDF: %v\n", err)
			os.Exit(1)
		}
	}

	if err := outputResult(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error outputting result: %v\n", err)
		os.Exit(1)
	}

	if result.Validation != nil && result.Validation.OverallStatus == voucher.OutcomeFail {
		os.Exit(2)
	}
}

// analyzeDocument runs a one-shot pipeline with no persistence.
func analyzeDocument(data []byte, provider voucher.ProviderType, filename string) (*voucher.VoucherAnalysisResult, error) {
	factory := llm.NewClientFactory()
	if key := os.Getenv("VOUCHER_OPENAI_API_KEY"); key != "" {
		factory.Register(llm.NewOpenAIClient(key, ""))
	}
	if key := os.Getenv("VOUCHER_CLAUDE_API_KEY"); key != "" {
		factory.Register(llm.NewClaudeClient(key, ""))
	}

	controller := pipeline.NewController(
		ingest.NewIngestor(),
		llm.NewGateway(factory, extract.NewEngine(), false),
		validate.NewValidator(),
		highlight.NewRenderer(),
		nil,
		false,
	)

	return controller.Analyze(context.Background(), pipeline.Request{
		Data:     data,
		Provider: provider,
		Filename: filename,
	})
}

func outputResult(result *voucher.VoucherAnalysisResult) error {
	switch *outputFormat {
	case "json":
		return outputJSON(result)
	case "text":
		return outputText(result)
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputJSON(result *voucher.VoucherAnalysisResult) error {
	// The highlight PDF is binary and can be large; the -output flag is the
	// way to get it.
	trimmed := *result
	trimmed.HighlightPDF = nil
	trimmed.ParsedDocument = nil

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(&trimmed)
}

func outputText(result *voucher.VoucherAnalysisResult) error {
	fmt.Printf("Document: %s\n", result.SourceFilename)
	if result.ParsedDocument != nil {
		fmt.Printf("Pages: %d\n", result.ParsedDocument.PageCount())
	}
	fmt.Println()

	if result.Extracted != nil {
		fmt.Println("Extracted fields:")
		for _, field := range result.Extracted.RequiredFields() {
			if field.Value.IsSet() {
				fmt.Printf("  %-16s %s (confidence %.2f)\n", field.Name+":", field.Value.Value, field.Value.Confidence)
			} else {
				fmt.Printf("  %-16s (not found)\n", field.Name+":")
			}
		}
		fmt.Println()
	}

	if result.Validation != nil {
		fmt.Printf("Validation: %s\n", result.Validation.OverallStatus)
		for _, key := range result.Validation.Keys {
			status := result.Validation.Requirements[key]
			line := fmt.Sprintf("  %-16s %s", key+":", status.Status)
			if status.Message != "" {
				line += " - " + status.Message
			}
			fmt.Println(line)
		}
	}

	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("Error: %s\n", e)
	}
	return nil
}

func printHelp() {
	fmt.Println("Voucher Extract - Analyze a dividend resolution document from the command line")
	fmt.Println()
	fmt.Println("Extracts the document title, company name, resolution date and dividend")
	fmt.Println("amount, validates them and optionally writes a highlight PDF.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -provider      Extraction provider: openai (default), claude")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -output        Write the highlight PDF to this path")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  voucher-extract resolution.pdf")
	fmt.Println("  voucher-extract -format json resolution.pdf")
	fmt.Println("  voucher-extract -output highlighted.pdf resolution.pdf")
	fmt.Println()
	fmt.Println("EXIT CODES:")
	fmt.Println("  0  validation passed or finished with warnings")
	fmt.Println("  1  the document could not be processed")
	fmt.Println("  2  validation failed")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  voucher-extract [OPTIONS] <document_file>")
}

func init() {
	// Custom flag usage
	flag.Usage = func() {
		printHelp()
	}
}
