package config

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	config := NewConfig()

	if config.MaxTokens != 2048 {
		t.Errorf("Expected default MaxTokens 2048, got %d", config.MaxTokens)
	}

	if config.Temperature != 0.7 {
		t.Errorf("Expected default Temperature 0.7, got %f", config.Temperature)
	}

	if config.Timeout != 30*time.Second {
		t.Errorf("Expected default Timeout 30s, got %v", config.Timeout)
	}

	if config.MaxRetries != 0 {
		t.Errorf("Expected no retries by default, got %d", config.MaxRetries)
	}

	if config.HasCredentials() {
		t.Error("Default config should not carry credentials")
	}
}

func TestConfigOptions(t *testing.T) {
	config := NewConfig(
		WithAPIKey("test-api-key"),
		WithModel("gemini-1.5-pro"),
		WithMaxTokens(1000),
		WithTemperature(0.5),
		WithBaseURL("https://test.example.com"),
		WithTimeout(10*time.Second),
		WithRetries(2, 50*time.Millisecond),
	)

	if config.APIKey != "test-api-key" {
		t.Errorf("Expected APIKey 'test-api-key', got %q", config.APIKey)
	}

	if config.Model != "gemini-1.5-pro" {
		t.Errorf("Expected Model 'gemini-1.5-pro', got %q", config.Model)
	}

	if config.MaxTokens != 1000 {
		t.Errorf("Expected MaxTokens 1000, got %d", config.MaxTokens)
	}

	if config.Temperature != 0.5 {
		t.Errorf("Expected Temperature 0.5, got %f", config.Temperature)
	}

	if config.BaseURL != "https://test.example.com" {
		t.Errorf("Expected BaseURL 'https://test.example.com', got %q", config.BaseURL)
	}

	if config.Timeout != 10*time.Second {
		t.Errorf("Expected Timeout 10s, got %v", config.Timeout)
	}

	if config.MaxRetries != 2 || config.RetryDelay != 50*time.Millisecond {
		t.Errorf("Expected 2 retries every 50ms, got %d every %v", config.MaxRetries, config.RetryDelay)
	}
}

func TestConfigMerge(t *testing.T) {
	base := NewConfig(WithModel("gemini-1.5-flash"), WithAPIKey("base-key"))
	override := Config{APIKey: "override-key", MaxRetries: 3}

	merged := base.Merge(override)

	if merged.APIKey != "override-key" {
		t.Errorf("Expected APIKey 'override-key', got %q", merged.APIKey)
	}
	if merged.Model != "gemini-1.5-flash" {
		t.Errorf("Expected Model to be kept, got %q", merged.Model)
	}
	if merged.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries 3, got %d", merged.MaxRetries)
	}
	if merged.Timeout != 30*time.Second {
		t.Errorf("Expected Timeout to be kept, got %v", merged.Timeout)
	}
}

func TestWithOptions(t *testing.T) {
	base := NewConfig()
	updated := base.WithOptions(WithModel("gemini-1.5-pro"))

	if base.Model != "" {
		t.Errorf("WithOptions must not mutate the receiver, got model %q", base.Model)
	}
	if updated.Model != "gemini-1.5-pro" {
		t.Errorf("Expected Model 'gemini-1.5-pro', got %q", updated.Model)
	}
}
