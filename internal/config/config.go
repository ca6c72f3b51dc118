package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultProvider    = "openai"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the voucher analyzer server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Voucher configuration
	VoucherDirectory string
	Provider         string

	// Provider credentials
	OpenAIAPIKey string
	ClaudeAPIKey string

	// Persistence configuration. An empty RedisAddr selects the in-memory
	// store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum document file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio, // Default to stdio mode for MCP compatibility
		Host:             DefaultHost,
		Port:             DefaultPort,
		VoucherDirectory: currentDir,
		Provider:         DefaultProvider,
		Version:          "1.0.0",
		ServerName:       "voucher-analyzer",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.VoucherDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.VoucherDirectory); err == nil {
			cfg.VoucherDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("VOUCHER")
	viper.AutomaticEnv()

	// Define flags with Viper
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.VoucherDirectory)
	viper.SetDefault("provider", cfg.Provider)
	viper.SetDefault("openai_api_key", cfg.OpenAIAPIKey)
	viper.SetDefault("claude_api_key", cfg.ClaudeAPIKey)
	viper.SetDefault("redis_addr", cfg.RedisAddr)
	viper.SetDefault("redis_password", cfg.RedisPassword)
	viper.SetDefault("redis_db", cfg.RedisDB)
	viper.SetDefault("redis_ttl", cfg.RedisTTL)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.VoucherDirectory, "Directory containing voucher documents")
	pflag.String("provider", cfg.Provider, "Extraction provider: 'openai' or 'claude'")
	pflag.String("redis-addr", cfg.RedisAddr, "Redis address for result persistence (empty = in-memory)")
	pflag.Duration("redis-ttl", cfg.RedisTTL, "TTL for persisted results (0 = no expiry)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("provider", pflag.Lookup("provider"))
	_ = viper.BindPFlag("redis_addr", pflag.Lookup("redis-addr"))
	_ = viper.BindPFlag("redis_ttl", pflag.Lookup("redis-ttl"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nVoucher Analyzer - A Model Context Protocol server for analyzing dividend resolution documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/vouchers                 "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --provider=claude                       # use the Claude backend\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --redis-addr=localhost:6379             # persist results in Redis\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_MODE            Server mode\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_HOST            Server host\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_PORT            Server port\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_DIR             Voucher directory\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_PROVIDER        Extraction provider\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_OPENAI_API_KEY  OpenAI API key\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_CLAUDE_API_KEY  Claude API key\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_REDIS_ADDR      Redis address\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_REDIS_TTL       Result TTL\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_LOGLEVEL        Log level\n")
		fmt.Fprintf(os.Stderr, "  VOUCHER_MAXFILESIZE     Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.VoucherDirectory = viper.GetString("dir")
	cfg.Provider = viper.GetString("provider")
	cfg.OpenAIAPIKey = viper.GetString("openai_api_key")
	cfg.ClaudeAPIKey = viper.GetString("claude_api_key")
	cfg.RedisAddr = viper.GetString("redis_addr")
	cfg.RedisPassword = viper.GetString("redis_password")
	cfg.RedisDB = viper.GetInt("redis_db")
	cfg.RedisTTL = viper.GetDuration("redis_ttl")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate provider
	if c.Provider != "openai" && c.Provider != "claude" {
		return fmt.Errorf("invalid provider: %s (must be 'openai' or 'claude')", c.Provider)
	}

	// Validate voucher directory
	if c.VoucherDirectory == "" {
		return errors.New("voucher directory cannot be empty")
	}

	// Check if voucher directory exists, create if it doesn't
	if _, err := os.Stat(c.VoucherDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.VoucherDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create voucher directory %s: %w", c.VoucherDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access voucher directory %s: %w", c.VoucherDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, VoucherDirectory: %s, Provider: %s, RedisAddr: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.VoucherDirectory, c.Provider, c.RedisAddr, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
