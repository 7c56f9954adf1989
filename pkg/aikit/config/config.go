// Package config provides configuration structures for aikit providers
package config

import (
	"time"
)

// Config provides explicit configuration for AI providers. Credentials are
// always passed in; providers never read the process environment themselves.
type Config struct {
	// API credentials
	APIKey string

	// Model configuration
	Model       string
	MaxTokens   int
	Temperature float64

	// Service configuration
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// ProviderOption allow optional configuration updates
type ProviderOption func(*Config)

// WithAPIKey sets the API key
func WithAPIKey(apiKey string) ProviderOption {
	return func(c *Config) {
		c.APIKey = apiKey
	}
}

// WithModel sets the model name
func WithModel(model string) ProviderOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithMaxTokens sets the maximum tokens for responses
func WithMaxTokens(maxTokens int) ProviderOption {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// WithTemperature sets the temperature for sampling
func WithTemperature(temperature float64) ProviderOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithBaseURL sets the API base URL
func WithBaseURL(baseURL string) ProviderOption {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetries sets how many extra attempts are made after a transport failure.
// Zero keeps the single-attempt behaviour.
func WithRetries(maxRetries int, delay time.Duration) ProviderOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// NewConfig creates a new configuration with defaults
func NewConfig(options ...ProviderOption) Config {
	config := Config{
		MaxTokens:   2048,
		Temperature: 0.7,
		Timeout:     30 * time.Second,
		RetryDelay:  time.Second,
	}

	for _, option := range options {
		option(&config)
	}

	return config
}

// Merge combines this configuration with another, with the other taking precedence
func (c Config) Merge(other Config) Config {
	// Only override values that are set in the other config
	result := c

	if other.APIKey != "" {
		result.APIKey = other.APIKey
	}

	if other.Model != "" {
		result.Model = other.Model
	}

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}

	if other.MaxTokens != 0 {
		result.MaxTokens = other.MaxTokens
	}

	if other.Temperature != 0 {
		result.Temperature = other.Temperature
	}

	if other.Timeout != 0 {
		result.Timeout = other.Timeout
	}

	if other.MaxRetries != 0 {
		result.MaxRetries = other.MaxRetries
	}

	if other.RetryDelay != 0 {
		result.RetryDelay = other.RetryDelay
	}

	return result
}

// WithOptions returns a new Config with options applied
func (c Config) WithOptions(options ...ProviderOption) Config {
	result := c
	for _, option := range options {
		option(&result)
	}
	return result
}

// HasCredentials reports whether an API key is present
func (c Config) HasCredentials() bool {
	return c.APIKey != ""
}
