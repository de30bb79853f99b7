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

// Config holds all configuration options for the Jike client
type Config struct {
	// API connection settings
	API APIConfig `yaml:"api" json:"api"`

	// QR login polling settings
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Export settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds connection settings for the Jike API
type APIConfig struct {
	Origin    string        `yaml:"origin" json:"origin"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// AuthConfig holds QR login polling settings
type AuthConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout" json:"poll_timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	PageDelay         time.Duration `yaml:"page_delay" json:"page_delay"`
}

// ExportConfig holds export-specific configuration
type ExportConfig struct {
	OutputDirectory     string `yaml:"output_directory" json:"output_directory"`
	DownloadImages      bool   `yaml:"download_images" json:"download_images"`
	ImagesDirectory     string `yaml:"images_directory" json:"images_directory"`
	ConcurrentDownloads int    `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	JSONDump            bool   `yaml:"json_dump" json:"json_dump"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Origin:    "https://api.ruguoapp.com",
			UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 18_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.5 Mobile/15E148 Safari/604.1",
			Timeout:   30 * time.Second,
		},
		Auth: AuthConfig{
			PollInterval: time.Second,
			PollTimeout:  180 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			PageDelay:         500 * time.Millisecond,
		},
		Export: ExportConfig{
			OutputDirectory:     ".",
			DownloadImages:      false,
			ImagesDirectory:     "",
			ConcurrentDownloads: 3,
			JSONDump:            false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if origin := os.Getenv("JIKECLI_API_ORIGIN"); origin != "" {
		c.API.Origin = origin
	}
	if userAgent := os.Getenv("JIKECLI_USER_AGENT"); userAgent != "" {
		c.API.UserAgent = userAgent
	}

	if rpm := os.Getenv("JIKECLI_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if delay := os.Getenv("JIKECLI_PAGE_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d >= 0 {
			c.RateLimit.PageDelay = d
		}
	}

	if outputDir := os.Getenv("JIKECLI_OUTPUT_DIR"); outputDir != "" {
		c.Export.OutputDirectory = outputDir
	}
	if concurrent := os.Getenv("JIKECLI_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Export.ConcurrentDownloads = val
		}
	}

	if logLevel := os.Getenv("JIKECLI_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
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
	locations := []string{
		".jikecli.yaml",
		".jikecli.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "jikecli", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "jikecli", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".jikecli.yaml"),
		filepath.Join(os.Getenv("HOME"), ".jikecli.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.Origin == "" {
		errs = append(errs, errors.New("API origin is required"))
	}
	if !strings.HasPrefix(c.API.Origin, "http://") && !strings.HasPrefix(c.API.Origin, "https://") {
		errs = append(errs, errors.New("API origin must be an http(s) URL"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}

	if c.Auth.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Auth.PollTimeout < c.Auth.PollInterval {
		errs = append(errs, errors.New("poll timeout must be at least one poll interval"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.PageDelay < 0 {
		errs = append(errs, errors.New("page delay cannot be negative"))
	}

	if c.Export.OutputDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Export.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Export.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if origin, ok := flags["origin"].(string); ok && origin != "" {
		c.API.Origin = origin
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Export.OutputDirectory = outputDir
	}
	if imagesDir, ok := flags["images-dir"].(string); ok && imagesDir != "" {
		c.Export.ImagesDirectory = imagesDir
	}
	if download, ok := flags["download-images"].(bool); ok {
		c.Export.DownloadImages = download
	}
	if jsonDump, ok := flags["json-dump"].(bool); ok {
		c.Export.JSONDump = jsonDump
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Export.ConcurrentDownloads = concurrent
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".jikecli.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
