package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimitConfig holds rate limiting configuration for the completion client
type RateLimitConfig struct {
	MaxRetries         int           `yaml:"max_retries"`          // Maximum retries on 429
	BaseDelay          time.Duration `yaml:"base_delay"`           // Base delay for exponential backoff
	MaxDelay           time.Duration `yaml:"max_delay"`            // Maximum delay between retries
	TokensPerMinute    int           `yaml:"tokens_per_minute"`    // Rate limit (tokens/minute)
	EnableRateLimiting bool          `yaml:"enable_rate_limiting"` // Enable proactive rate limiting
}

// AgentConfig holds agent loop configuration
type AgentConfig struct {
	MaxIterations      int           `yaml:"max_iterations"`       // Iteration ceiling for one conversational turn
	CompletionTimeout  time.Duration `yaml:"completion_timeout"`   // Timeout per completion request
	MaxToolConcurrency int           `yaml:"max_tool_concurrency"` // Concurrent tool dispatches per batch
	RecoverToolErrors  bool          `yaml:"recover_tool_errors"`  // Convert handler failures into tool-turn text
}

// RetrievalConfig holds similarity search configuration
type RetrievalConfig struct {
	MatchThreshold float64 `yaml:"match_threshold"` // Minimum similarity for a document to count
	MatchCount     int     `yaml:"match_count"`     // Maximum documents per query
}

// SyncConfig holds sync worker configuration
type SyncConfig struct {
	Channel        string        `yaml:"channel"`          // Notification channel name
	MaxAttempts    int           `yaml:"max_attempts"`     // Attempts per event before giving up
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"` // Base delay for retry backoff
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`  // Cap on retry backoff
}

// Config holds the application configuration
type Config struct {
	APIKey          string `yaml:"-"` // Anthropic key, from environment only
	EmbeddingAPIKey string `yaml:"-"` // OpenAI key, from environment only
	DatabaseURL     string `yaml:"-"` // From environment only

	Model               string  `yaml:"model"`
	MaxTokens           int     `yaml:"max_tokens"`
	Temperature         float64 `yaml:"temperature"`
	EmbeddingModel      string  `yaml:"embedding_model"`
	EmbeddingDimensions int     `yaml:"embedding_dimensions"`
	SystemUsername      string  `yaml:"system_username"` // Username protective remarks are posted under

	Agent     AgentConfig     `yaml:"agent"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Sync      SyncConfig      `yaml:"sync"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Internal: where config was loaded from
	configPath string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Model:               "claude-sonnet-4-5-20250929",
		MaxTokens:           8192,
		Temperature:         0.1,
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		SystemUsername:      "@john.doe",
		Agent: AgentConfig{
			MaxIterations:      20,
			CompletionTimeout:  60 * time.Second,
			MaxToolConcurrency: 4,
			RecoverToolErrors:  false,
		},
		Retrieval: RetrievalConfig{
			MatchThreshold: 0.5,
			MatchCount:     10,
		},
		Sync: SyncConfig{
			Channel:        "modbot_events",
			MaxAttempts:    5,
			RetryBaseDelay: 1 * time.Second,
			RetryMaxDelay:  30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			MaxRetries:         5,
			BaseDelay:          1 * time.Second,
			MaxDelay:           60 * time.Second,
			TokensPerMinute:    30000,
			EnableRateLimiting: true,
		},
	}
}

// LoadOptions controls configuration loading
type LoadOptions struct {
	TokenOverride string // Overrides ANTHROPIC_API_KEY when set
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions loads configuration from files and environment with overrides
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config files in priority order
	configPaths := getConfigPaths()
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadFromFile(path); err != nil {
				return nil, fmt.Errorf("error loading config from %s: %w", path, err)
			}
			cfg.configPath = path
			break
		}
	}

	// If no config found, create default
	if cfg.configPath == "" {
		if err := cfg.createDefault(); err != nil {
			// Non-fatal: just use defaults
			fmt.Fprintf(os.Stderr, "Warning: could not create default config: %v\n", err)
		}
	}

	// Secrets come from the environment only
	cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	if opts.TokenOverride != "" {
		cfg.APIKey = opts.TokenOverride
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
	}

	cfg.EmbeddingAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.EmbeddingAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return cfg, nil
}

// getConfigPaths returns config file paths in priority order
func getConfigPaths() []string {
	paths := []string{
		"modbot.yaml",
		".modbot/config.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "modbot", "config.yaml"))
	}

	return paths
}

// loadFromFile loads config from a YAML file
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// createDefault creates a default config file
func (c *Config) createDefault() error {
	dir := ".modbot"
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dir, "config.yaml")
	c.configPath = path

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	content := "# modbot configuration\n\n" + string(data)
	return os.WriteFile(path, []byte(content), 0644)
}

// ConfigPath returns where the config was loaded from
func (c *Config) ConfigPath() string {
	return c.configPath
}
