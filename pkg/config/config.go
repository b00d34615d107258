package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the friend tracker
type Config struct {
	// Roblox session settings
	Roblox RobloxConfig `yaml:"roblox" json:"roblox"`

	// Rate limiting and retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Fetch settings for the paginated friend list
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RobloxConfig holds Roblox-specific configuration
type RobloxConfig struct {
	Cookie    string `yaml:"cookie" json:"cookie"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting and retry configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// FetchConfig holds settings for the paginated fetch
type FetchConfig struct {
	PageSize       int           `yaml:"page_size" json:"page_size"`
	BatchSize      int           `yaml:"batch_size" json:"batch_size"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Roblox: RobloxConfig{
			UserAgent: "Roblox/WinInet",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			MaxRetries:        3,
			RetryDelay:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
		Fetch: FetchConfig{
			PageSize:       50,
			BatchSize:      50,
			RequestTimeout: 30 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: ".",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if cookie := os.Getenv("FRIENDTRACK_COOKIE"); cookie != "" {
		c.Roblox.Cookie = cookie
	}
	if userAgent := os.Getenv("FRIENDTRACK_USER_AGENT"); userAgent != "" {
		c.Roblox.UserAgent = userAgent
	}

	if rpm := os.Getenv("FRIENDTRACK_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if retries := os.Getenv("FRIENDTRACK_MAX_RETRIES"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val > 0 {
			c.RateLimit.MaxRetries = val
		}
	}

	if outputDir := os.Getenv("FRIENDTRACK_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if logLevel := os.Getenv("FRIENDTRACK_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("FRIENDTRACK_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".friendtrack.yaml",
		".friendtrack.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "friendtrack", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "friendtrack", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".friendtrack.yaml"),
		filepath.Join(os.Getenv("HOME"), ".friendtrack.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. The cookie is deliberately
// not validated here: credential resolution (stored accounts, interactive
// prompt) happens after config loading.
func (c *Config) Validate() error {
	var errs []error

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.RateLimit.RetryDelay <= 0 {
		errs = append(errs, errors.New("retry delay must be positive"))
	}

	if c.Fetch.PageSize <= 0 || c.Fetch.PageSize > 100 {
		errs = append(errs, errors.New("page size must be between 1 and 100"))
	}
	if c.Fetch.BatchSize <= 0 || c.Fetch.BatchSize > 100 {
		errs = append(errs, errors.New("batch size must be between 1 and 100"))
	}
	if c.Fetch.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file may contain the session cookie
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if cookie, ok := flags["cookie"].(string); ok && cookie != "" {
		c.Roblox.Cookie = cookie
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if retries, ok := flags["max-retries"].(int); ok && retries > 0 {
		c.RateLimit.MaxRetries = retries
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".friendtrack.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
