package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shokenlabs/voucher-analyzer/internal/config"
	"github.com/shokenlabs/voucher-analyzer/internal/descriptions"
	"github.com/shokenlabs/voucher-analyzer/internal/pipeline"
	"github.com/shokenlabs/voucher-analyzer/internal/store"
	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	controller *pipeline.Controller
	store      store.AnalysisStore
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, controller *pipeline.Controller, st store.AnalysisStore) (*Server, error) {
	if controller == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		controller: controller,
		store:      st,
		mcpServer:  mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Register voucher analyze file tool
	analyzeFileTool := mcp.NewTool(
		"voucher_analyze_file",
		mcp.WithDescription(descriptions.VoucherAnalyzeFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the document file"),
		),
		mcp.WithString("provider",
			mcp.Description("Extraction provider: 'openai' or 'claude' (uses configured default if empty)"),
		),
		mcp.WithString("session_key",
			mcp.Description("Session key to store the result under (generated if empty)"),
		),
	)
	s.mcpServer.AddTool(analyzeFileTool, s.handleAnalyzeFile)

	// Register voucher validate file tool
	validateFileTool := mcp.NewTool(
		"voucher_validate_file",
		mcp.WithDescription(descriptions.VoucherValidateFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the document file"),
		),
		mcp.WithString("provider",
			mcp.Description("Extraction provider: 'openai' or 'claude' (uses configured default if empty)"),
		),
	)
	s.mcpServer.AddTool(validateFileTool, s.handleValidateFile)

	// Register voucher save highlight tool
	saveHighlightTool := mcp.NewTool(
		"voucher_save_highlight",
		mcp.WithDescription(descriptions.VoucherSaveHighlightDescription),
		mcp.WithString("session_key",
			mcp.Required(),
			mcp.Description("Session key of a previous analysis"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Destination file path for the highlight PDF"),
		),
	)
	s.mcpServer.AddTool(saveHighlightTool, s.handleSaveHighlight)

	// Register voucher list sessions tool
	listSessionsTool := mcp.NewTool(
		"voucher_list_sessions",
		mcp.WithDescription(descriptions.VoucherListSessionsDescription),
	)
	s.mcpServer.AddTool(listSessionsTool, s.handleListSessions)

	// Register voucher load session tool
	loadSessionTool := mcp.NewTool(
		"voucher_load_session",
		mcp.WithDescription(descriptions.VoucherLoadSessionDescription),
		mcp.WithString("session_key",
			mcp.Required(),
			mcp.Description("Session key of a previous analysis"),
		),
	)
	s.mcpServer.AddTool(loadSessionTool, s.handleLoadSession)

	// Register voucher delete session tool
	deleteSessionTool := mcp.NewTool(
		"voucher_delete_session",
		mcp.WithDescription(descriptions.VoucherDeleteSessionDescription),
		mcp.WithString("session_key",
			mcp.Required(),
			mcp.Description("Session key of a previous analysis"),
		),
	)
	s.mcpServer.AddTool(deleteSessionTool, s.handleDeleteSession)

	// Register voucher server info tool
	serverInfoTool := mcp.NewTool(
		"voucher_server_info",
		mcp.WithDescription(descriptions.VoucherServerInfoDescription),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleAnalyzeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := s.readDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	provider, err := s.resolveProvider(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sessionKey := request.GetString("session_key", "")
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}

	result, err := s.controller.Analyze(ctx, pipeline.Request{
		Data:       data,
		Provider:   provider,
		SessionKey: sessionKey,
		Filename:   filepath.Base(path),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatAnalysisResult(sessionKey, result)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := s.readDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	provider, err := s.resolveProvider(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.controller.Validate(ctx, pipeline.Request{
		Data:     data,
		Provider: provider,
		Filename: filepath.Base(path),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Validation of %s\n", path)
	responseText += s.formatValidationReport(report)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSaveHighlight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionKey, err := request.RequireString("session_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.store.Load(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no analysis stored under session %s", sessionKey)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(result.HighlightPDF) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("session %s has no highlight PDF", sessionKey)), nil
	}

	if err := os.WriteFile(path, result.HighlightPDF, 0o600); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("write highlight PDF: %v", err)), nil
	}

	responseText := fmt.Sprintf("Saved highlight PDF for session %s\n", sessionKey)
	responseText += fmt.Sprintf("Path: %s\n", path)
	responseText += fmt.Sprintf("Size: %d bytes\n", len(result.HighlightPDF))
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(keys) == 0 {
		return mcp.NewToolResultText("No stored analysis sessions"), nil
	}

	responseText := fmt.Sprintf("Found %d stored analysis session(s):\n", len(keys))
	for i, key := range keys {
		responseText += fmt.Sprintf("%d. %s\n", i+1, key)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleLoadSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionKey, err := request.RequireString("session_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.store.Load(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no analysis stored under session %s", sessionKey)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatAnalysisResult(sessionKey, result)), nil
}

func (s *Server) handleDeleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionKey, err := request.RequireString("session_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.store.Delete(ctx, sessionKey); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted analysis session %s", sessionKey)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Voucher directory: %s\n", s.config.VoucherDirectory)
	text += fmt.Sprintf("Default provider: %s\n", s.config.Provider)
	text += fmt.Sprintf("Max file size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	if s.config.RedisAddr != "" {
		text += fmt.Sprintf("Persistence: redis (%s)\n", s.config.RedisAddr)
	} else {
		text += "Persistence: in-memory\n"
	}

	text += "\nAvailable Tools:\n"
	text += "• voucher_analyze_file    - full analysis: extract, validate, highlight, persist\n"
	text += "• voucher_validate_file   - extraction and validation only\n"
	text += "• voucher_save_highlight  - write a stored highlight PDF to disk\n"
	text += "• voucher_list_sessions   - list stored session keys\n"
	text += "• voucher_load_session    - show a stored analysis summary\n"
	text += "• voucher_delete_session  - remove a stored analysis\n"
	text += "• voucher_server_info     - this information\n"

	text += "\nAnalyze a document first; the returned session key retrieves the result later.\n"
	return mcp.NewToolResultText(text), nil
}

// readDocument loads a document file, enforcing the configured size limit.
func (s *Server) readDocument(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > s.config.MaxFileSize {
		return nil, fmt.Errorf("file %s exceeds maximum size of %d bytes", path, s.config.MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %s: %w", path, err)
	}
	return data, nil
}

// resolveProvider picks the request's provider or falls back to the
// configured default.
func (s *Server) resolveProvider(request mcp.CallToolRequest) (voucher.ProviderType, error) {
	name := request.GetString("provider", "")
	if name == "" {
		name = s.config.Provider
	}
	return voucher.ParseProvider(name)
}

// Formatting methods
func (s *Server) formatAnalysisResult(sessionKey string, result *voucher.VoucherAnalysisResult) string {
	text := "Voucher Analysis Result\n"
	text += fmt.Sprintf("Session: %s\n", sessionKey)
	if result.SourceFilename != "" {
		text += fmt.Sprintf("File: %s\n", result.SourceFilename)
	}
	if result.ParsedDocument != nil {
		text += fmt.Sprintf("Pages: %d\n", result.ParsedDocument.PageCount())
	}
	text += fmt.Sprintf("Highlight PDF: %d bytes\n", len(result.HighlightPDF))

	if result.Extracted != nil {
		text += "\nExtracted Fields:\n"
		for _, field := range result.Extracted.RequiredFields() {
			if field.Value.IsSet() {
				text += fmt.Sprintf("  %-16s %s (confidence %.2f)\n", field.Name+":", field.Value.Value, field.Value.Confidence)
			} else {
				text += fmt.Sprintf("  %-16s (not found)\n", field.Name+":")
			}
		}
	}

	if result.Validation != nil {
		text += "\n" + s.formatValidationReport(result.Validation)
	}

	for _, w := range result.Warnings {
		text += fmt.Sprintf("\nWarning: %s", w)
	}
	for _, e := range result.Errors {
		text += fmt.Sprintf("\nError: %s", e)
	}
	return text
}

func (s *Server) formatValidationReport(report *voucher.ValidationReport) string {
	text := fmt.Sprintf("Validation: %s\n", report.OverallStatus)
	for _, key := range report.Keys {
		status := report.Requirements[key]
		line := fmt.Sprintf("  %-16s %s", key+":", status.Status)
		if status.Message != "" {
			line += " - " + status.Message
		}
		text += line + "\n"
	}
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting voucher analyzer MCP server in stdio mode")
		log.Printf("Voucher directory: %s", s.config.VoucherDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// For now, we'll just use stdio mode since the mark3labs library
	// handles the transport differently
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
