package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shokenlabs/voucher-analyzer/internal/config"
	"github.com/shokenlabs/voucher-analyzer/internal/extract"
	"github.com/shokenlabs/voucher-analyzer/internal/highlight"
	"github.com/shokenlabs/voucher-analyzer/internal/ingest"
	"github.com/shokenlabs/voucher-analyzer/internal/llm"
	"github.com/shokenlabs/voucher-analyzer/internal/mcp"
	"github.com/shokenlabs/voucher-analyzer/internal/pipeline"
	"github.com/shokenlabs/voucher-analyzer/internal/store"
	"github.com/shokenlabs/voucher-analyzer/internal/validate"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

const pingTimeout = 5 * time.Second

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// In stdio mode, redirect log output to stderr to avoid interfering with MCP protocol
		log.SetOutput(os.Stderr)
		// Reduce log verbosity in stdio mode unless debug is enabled
		if !cfg.IsDebug() {
			log.SetOutput(os.NewFile(0, os.DevNull))
		}
	} else {
		// In server mode, use normal stdout logging with more detail
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// buildStore selects the persistence backend from configuration.
func buildStore(cfg *config.Config) (store.AnalysisStore, func(), error) {
	if cfg.RedisAddr == "" {
		return store.NewMemoryStore(), func() {}, nil
	}
	rs := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rs.Ping(ctx); err != nil {
		_ = rs.Close()
		return nil, nil, err
	}
	return rs, func() { _ = rs.Close() }, nil
}

// buildController wires the pipeline stages from configuration.
func buildController(cfg *config.Config, st store.AnalysisStore) *pipeline.Controller {
	factory := llm.NewClientFactory()
	if cfg.OpenAIAPIKey != "" {
		factory.Register(llm.NewOpenAIClient(cfg.OpenAIAPIKey, ""))
	}
	if cfg.ClaudeAPIKey != "" {
		factory.Register(llm.NewClaudeClient(cfg.ClaudeAPIKey, ""))
	}
	gateway := llm.NewGateway(factory, extract.NewEngine(), cfg.IsDebug())

	return pipeline.NewController(
		ingest.NewIngestor(),
		gateway,
		validate.NewValidator(),
		highlight.NewRenderer(),
		st,
		cfg.IsDebug(),
	)
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Start server in a goroutine
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		// Wait for server to shutdown
		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, _ context.CancelFunc, server *mcp.Server) {
	// In stdio mode, the parent process controls our lifecycle
	// We should exit cleanly when stdin is closed or we get an error

	// Start server and wait for it to complete
	if err := server.Run(ctx); err != nil {
		// Only log to stderr in debug mode to avoid protocol interference
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// Load a local .env before viper reads the environment
	_ = godotenv.Load()

	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging based on mode
	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && cfg.IsServerMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	// Create persistence backend
	st, closeStore, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect persistence backend: %v", err)
	}
	defer closeStore()

	// Create analysis pipeline
	controller := buildController(cfg, st)

	// Create MCP server
	server, err := mcp.NewServer(cfg, controller, st)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle different modes
	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server)
	} else {
		runStdioMode(ctx, cancel, server)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Voucher Analyzer\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
